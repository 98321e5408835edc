package mapsource

import (
	"context"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
)

// objectScanner is the part of the osmxml and osmpbf scanners the map source reads with
type objectScanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
	Close() error
}

type fileFormat int

const (
	fileFormatUnknown fileFormat = iota
	fileFormatXML
	fileFormatPBF
)

func (f fileFormat) String() string {
	switch f {
	case fileFormatXML:
		return "osm-xml"
	case fileFormatPBF:
		return "osm-pbf"
	default:
		return "unknown"
	}
}

func detectFileFormat(path string) fileFormat {
	lowerPath := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lowerPath, ".osm.pbf"), filepath.Ext(lowerPath) == ".pbf":
		return fileFormatPBF
	case filepath.Ext(lowerPath) == ".osm", strings.HasSuffix(lowerPath, ".osm.xml"):
		return fileFormatXML
	default:
		return fileFormatUnknown
	}
}

func newObjectScanner(ctx context.Context, reader io.Reader, format fileFormat) (objectScanner, errorsx.Error) {
	switch format {
	case fileFormatXML:
		return osmxml.New(ctx, reader), nil
	case fileFormatPBF:
		return osmpbf.New(ctx, reader, runtime.NumCPU()), nil
	default:
		return nil, errorsx.Wrap(ErrUnsupportedFormat, "format", format.String())
	}
}
