// Package delivery ships an assembled package to the physical printer over
// the configured channels. Channels run concurrently and fail
// independently; FTP is the fulfillment-critical path, email is best-effort
// unless promoted by configuration.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/snapkeep/printworks/config"
	"github.com/snapkeep/printworks/internal/model"
)

// ChannelResult records one channel's outcome without conflating it with
// the overall dispatch result, so callers and tests can assert on each
// branch independently.
type ChannelResult struct {
	// Attempted is false for disabled channels, which are a no-op success.
	Attempted bool
	Err       error
}

// Result is the per-channel outcome of one dispatch.
type Result struct {
	Email ChannelResult
	FTP   ChannelResult
}

// Dispatcher fans a package out to the print channels.
type Dispatcher struct {
	cfg    config.Printer
	email  *EmailChannel
	ftp    *FTPChannel
	log    *slog.Logger
}

// NewDispatcher wires the dispatcher from configuration and the two
// channel implementations.
func NewDispatcher(cfg config.Printer, email *EmailChannel, ftp *FTPChannel, log *slog.Logger) *Dispatcher {
	return &Dispatcher{cfg: cfg, email: email, ftp: ftp, log: log}
}

// Dispatch sends the package over both channels concurrently and resolves
// once both have resolved.
//
// The returned error combines the failures the channel policy treats as
// fulfillment-critical: FTP always, email only when configured critical.
// Everything else is logged and reported in Result only.
func (d *Dispatcher) Dispatch(ctx context.Context, user *model.User, order *model.Order, packagePath string) (Result, error) {
	var res Result
	var wg sync.WaitGroup

	if d.cfg.Email.Enabled {
		res.Email.Attempted = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			res.Email.Err = d.email.Send(ctx, user, order)
		}()
	} else {
		d.log.Info("email channel disabled", "user", user.Username)
	}

	if d.cfg.FTP.Enabled {
		res.FTP.Attempted = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			res.FTP.Err = d.ftp.Send(ctx, user, order, packagePath)
		}()
	} else {
		d.log.Info("ftp channel disabled", "user", user.Username)
	}

	wg.Wait()

	var critical []error
	if res.FTP.Err != nil {
		critical = append(critical, fmt.Errorf("delivery: ftp: %w", res.FTP.Err))
	}
	if res.Email.Err != nil {
		if d.cfg.Email.Critical {
			critical = append(critical, fmt.Errorf("delivery: email: %w", res.Email.Err))
		} else {
			d.log.Error("email channel failed", "user", user.Username, "error", res.Email.Err)
		}
	}

	return res, errors.Join(critical...)
}
