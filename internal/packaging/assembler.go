// Package packaging assembles the deliverable for one order: a zip archive
// holding every acquired image plus a generated readme manifest the print
// operator reads for the shipping details.
package packaging

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/snapkeep/printworks/internal/imaging"
	"github.com/snapkeep/printworks/internal/model"
)

const dateLayout = "2006-01-02"

// PackageName is the deterministic base name for an order's archive:
// <username>-<start>-to-<end>.
func PackageName(user *model.User, order *model.Order) string {
	return fmt.Sprintf("%s-%s-to-%s",
		user.Username,
		order.StartDate.Format(dateLayout),
		order.EndDate.Format(dateLayout),
	)
}

// Assembler builds order packages.
type Assembler struct {
	log *slog.Logger
}

// NewAssembler returns an Assembler.
func NewAssembler(log *slog.Logger) *Assembler {
	return &Assembler{log: log}
}

// Assemble writes the readme manifest and zips it together with the images.
// The archive is written into dir and its full path returned.
func (a *Assembler) Assemble(dir string, user *model.User, order *model.Order, images []imaging.LocalImage) (string, error) {
	readmePath, err := a.writeManifest(dir, user, order)
	if err != nil {
		return "", err
	}

	entries := make([]imaging.LocalImage, 0, len(images)+1)
	entries = append(entries, images...)
	entries = append(entries, imaging.LocalImage{
		Path: readmePath,
		Name: filepath.Base(readmePath),
	})

	zipPath := filepath.Join(dir, PackageName(user, order)+".zip")
	if err := zipFiles(zipPath, entries); err != nil {
		return "", err
	}

	a.log.Info("assembled package",
		"user", user.Username, "images", len(images), "package", zipPath)
	return zipPath, nil
}

func (a *Assembler) writeManifest(dir string, user *model.User, order *model.Order) (string, error) {
	path := filepath.Join(dir, user.Username+"-readme.txt")
	if err := os.WriteFile(path, []byte(Manifest(user, order)), 0o644); err != nil {
		return "", fmt.Errorf("packaging: write manifest: %w", err)
	}
	return path, nil
}

// Manifest renders the readme text: order end date, then the user and
// shipping address blocks.
func Manifest(user *model.User, order *model.Order) string {
	var b strings.Builder
	b.WriteString(order.EndDate.Format("02-01-2006") + "\n")
	b.WriteString(UserBlock(user, "\n"))
	b.WriteString(AddressBlock(order.Address, "\n"))
	return b.String()
}

// UserBlock formats the user identity for the manifest and printer email.
func UserBlock(user *model.User, lineEnd string) string {
	var b strings.Builder
	b.WriteString("@" + strings.TrimSpace(user.Username) + lineEnd)
	b.WriteString(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName) + lineEnd)
	return b.String()
}

// AddressBlock formats the shipping address for the manifest and printer
// email. The final line carries no trailing line ending.
func AddressBlock(addr model.Address, lineEnd string) string {
	return strings.Join(addr.Lines(), lineEnd)
}

func zipFiles(zipPath string, entries []imaging.LocalImage) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("packaging: create archive: %w", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	for _, entry := range entries {
		if err := addFile(w, entry); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("packaging: finalize archive: %w", err)
	}
	return nil
}

func addFile(w *zip.Writer, entry imaging.LocalImage) error {
	f, err := os.Open(entry.Path)
	if err != nil {
		return fmt.Errorf("packaging: open %s: %w", entry.Path, err)
	}
	defer f.Close()

	dst, err := w.Create(entry.Name)
	if err != nil {
		return fmt.Errorf("packaging: add %s: %w", entry.Name, err)
	}
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("packaging: write %s: %w", entry.Name, err)
	}
	return nil
}
