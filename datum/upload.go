package datum

import (
	"github.com/tidepool-org/medical-data/config"
)

// Upload records one device upload session. Kept unfiltered in the basics
// view for print attribution.
type Upload struct {
	Base
	UploadID string `json:"uploadId,omitempty"`
	Client   string `json:"client,omitempty"`
}

func NormalizeUpload(raw Raw, opts *config.Options) (*Upload, error) {
	base, err := normalizeBase(raw, opts)
	if err != nil {
		return nil, err
	}

	var fields struct {
		UploadID string `json:"uploadId"`
		Client   string `json:"client"`
	}
	if err := decode(raw, &fields); err != nil {
		return nil, err
	}

	base.Type = TypeUpload
	return &Upload{Base: base, UploadID: fields.UploadID, Client: fields.Client}, nil
}
