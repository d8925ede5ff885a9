package browser

import (
	"github.com/go-rod/rod/lib/launcher"
	"github.com/sirupsen/logrus"
)

// Opener opens a URL for the user to interact with.
type Opener interface {
	Open(url string) error
}

// RodOpener opens URLs with the system's default browser through rod's launcher.
type RodOpener struct {
	log      logrus.FieldLogger
	lookPath func() (string, bool)
	open     func(url string)
}

// NewRodOpener creates a new opener.
func NewRodOpener(logger logrus.FieldLogger) *RodOpener {
	return &RodOpener{
		log:      logger.WithField("component", "browser"),
		lookPath: launcher.LookPath,
		open:     launcher.Open,
	}
}

// Open hands url to the system opener. Any installed browser may handle it,
// so a missing Chromium binary is only noted in the debug log.
func (o *RodOpener) Open(url string) error {
	if path, ok := o.lookPath(); ok {
		o.log.WithField("chromium", path).Debug("Chromium browser found")
	} else {
		o.log.Debug("No Chromium browser found, relying on the system default")
	}
	o.open(url)
	return nil
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(url string) error

func (f OpenerFunc) Open(url string) error { return f(url) }
