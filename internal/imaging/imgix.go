package imaging

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"

	"github.com/snapkeep/printworks/config"
)

// URLBuilder turns a source image plus a crop instruction into a
// derived-image URL the acquirer can download.
type URLBuilder interface {
	DerivedURL(sourceURL string, ins Instruction) string
}

// Imgix builds signed imgix web-proxy URLs. The proxy fetches the upstream
// source itself, so the path is the percent-encoded source URL and the query
// carries the resize parameters.
type Imgix struct {
	host      string
	token     string
	fillColor string
}

// NewImgix builds the imgix URL builder from crop configuration.
func NewImgix(cfg config.Crop) *Imgix {
	return &Imgix{
		host:      cfg.ImgixHost,
		token:     cfg.ImgixToken,
		fillColor: cfg.FillColor,
	}
}

// DerivedURL returns the CDN URL for the instruction. Passthrough
// instructions return the source URL unchanged.
func (ix *Imgix) DerivedURL(sourceURL string, ins Instruction) string {
	if ins.Mode == ModePassthrough {
		return sourceURL
	}

	path := "/" + url.QueryEscape(sourceURL)

	params := url.Values{}
	params.Set("w", fmt.Sprint(ins.Width))
	params.Set("h", fmt.Sprint(ins.Height))
	switch ins.Mode {
	case ModeCrop:
		params.Set("fit", "crop")
		params.Set("crop", "faces")
	case ModeFill:
		params.Set("fit", "fill")
		params.Set("fill", "solid")
		params.Set("bg", ix.fillColor)
	}
	query := params.Encode()

	if ix.token != "" {
		// imgix signing: md5 of token + path + "?" + query, appended as s=.
		sum := md5.Sum([]byte(ix.token + path + "?" + query))
		query += "&s=" + hex.EncodeToString(sum[:])
	}

	return "https://" + ix.host + path + "?" + query
}
