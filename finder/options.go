package finder

import (
	"strings"

	"github.com/spf13/afero"
)

type options struct {
	fs         afero.Fs
	extensions []string
	classifier Classifier
}

func defaultOptions() options {
	return options{
		fs:         afero.NewOsFs(),
		extensions: []string{".go"},
	}
}

// Option configures a finder.
type Option func(*options)

// WithFs sets the filesystem walked by AutoDiscover.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithExtensions sets the source file extensions, e.g. ".go".
func WithExtensions(exts ...string) Option {
	return func(o *options) {
		if len(exts) == 0 {
			return
		}
		o.extensions = make([]string, 0, len(exts))
		for _, ext := range exts {
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			o.extensions = append(o.extensions, ext)
		}
	}
}

// WithClassifier sets the classifier applied to every discovered type.
func WithClassifier(c Classifier) Option {
	return func(o *options) {
		o.classifier = c
	}
}
