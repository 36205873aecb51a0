package ownmapdal

import (
	"context"
	"runtime"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
)

// OSMObjectScanner reads OSM objects one at a time, in file order
type OSMObjectScanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
}

type DefaultPBFReader struct {
	file gofs.File
	*osmpbf.Scanner
	totalSize int64
}

func NewDefaultPBFReader(file gofs.File) (*DefaultPBFReader, errorsx.Error) {
	fileInfo, err := file.Stat()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	osmPBFReader := osmpbf.New(context.Background(), file, runtime.NumCPU())

	// relations are not drawn
	osmPBFReader.SkipRelations = true

	return &DefaultPBFReader{file, osmPBFReader, fileInfo.Size()}, nil
}

func (r *DefaultPBFReader) TotalSize() int64 {
	return r.totalSize
}

func (r *DefaultPBFReader) Close() errorsx.Error {
	err := r.Scanner.Close()
	if err != nil {
		return errorsx.Wrap(err)
	}

	err = r.file.Close()
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}
