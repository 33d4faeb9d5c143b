package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jlaffaye/ftp"

	"github.com/snapkeep/printworks/config"
	"github.com/snapkeep/printworks/internal/model"
	"github.com/snapkeep/printworks/internal/packaging"
)

// Uploader streams one local file to the printer's FTP root. Satisfied by
// FTPUploader in production and by fakes in tests.
type Uploader interface {
	Upload(ctx context.Context, localPath, remoteName string) error
}

// FTPUploader opens a fresh session per upload against the configured host.
type FTPUploader struct {
	Config config.FTPChannel
}

func (u *FTPUploader) Upload(ctx context.Context, localPath, remoteName string) error {
	addr := fmt.Sprintf("%s:%d", u.Config.Host, u.Config.Port)

	conn, err := ftp.Dial(addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(u.Config.Timeout),
	)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Quit()

	if err := conn.Login(u.Config.Username, u.Config.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	if err := conn.Stor(remoteName, f); err != nil {
		return fmt.Errorf("stor %s: %w", remoteName, err)
	}
	return nil
}

// FTPChannel uploads the package under its deterministic name. A failure
// here means an unfulfilled physical order, so the dispatcher always
// propagates it.
type FTPChannel struct {
	uploader Uploader
	log      *slog.Logger
}

// NewFTPChannel builds the FTP print channel.
func NewFTPChannel(uploader Uploader, log *slog.Logger) *FTPChannel {
	return &FTPChannel{uploader: uploader, log: log}
}

// Send streams the package file to the printer.
func (c *FTPChannel) Send(ctx context.Context, user *model.User, order *model.Order, packagePath string) error {
	remoteName := packaging.PackageName(user, order) + ".zip"

	c.log.Info("uploading package via ftp", "user", user.Username, "file", remoteName)
	if err := c.uploader.Upload(ctx, packagePath, remoteName); err != nil {
		return err
	}
	c.log.Info("ftp upload complete", "user", user.Username, "file", remoteName)
	return nil
}
