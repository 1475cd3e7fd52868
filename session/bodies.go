package session

import (
	"github.com/opd-ai/airtunes/metadata"
	"github.com/opd-ai/airtunes/rtsp"
)

// Content types the control channel carries.
const (
	ContentTypeSDP        = "application/sdp"
	ContentTypeParameters = "text/parameters"
	ContentTypeDAAP       = "application/x-dmap-tagged"
	ContentTypeJPEG       = "image/jpeg"
	ContentTypePNG        = "image/png"
)

// RegisterBodies installs the manager's body consumers.
func (m *Manager) RegisterBodies(r *rtsp.Registry) {
	r.Register(ContentTypeSDP, m.handleSDP)
	r.Register(ContentTypeParameters, m.handleParameters)
	r.Register(ContentTypeDAAP, m.handleDAAP)
	r.Register(ContentTypeJPEG, m.artworkHandler(ContentTypeJPEG))
	r.Register(ContentTypePNG, m.artworkHandler(ContentTypePNG))
}

func (m *Manager) handleSDP(body []byte) {
	info, err := metadata.ParseSDP(body)
	if err != nil {
		m.logger("Manager.handleSDP").WithError(err).Warn("Dropping session description")
		return
	}
	if err := m.UpdateEncryption(info); err != nil {
		m.logger("Manager.handleSDP").WithError(err).Error("Stream cannot be decrypted")
	}
}

func (m *Manager) handleParameters(body []byte) {
	v, err := metadata.ParseParameters(string(body))
	if err != nil {
		m.logger("Manager.handleParameters").WithError(err).Debug("Dropping parameters")
		return
	}
	m.applyValues(v)
}

func (m *Manager) handleDAAP(body []byte) {
	v, err := metadata.ParseDAAP(body)
	if err != nil {
		m.logger("Manager.handleDAAP").WithError(err).Debug("Truncated metadata")
	}
	m.applyValues(v)
}

func (m *Manager) artworkHandler(contentType string) func([]byte) {
	return func(body []byte) {
		m.UpdateTrackInfo(metadata.ParseArtwork(contentType, body))
	}
}

// applyValues feeds one parsed body to both records.
func (m *Manager) applyValues(v metadata.Values) {
	if v.IsEmpty() {
		return
	}
	m.UpdateTrackInfo(v)
	m.UpdatePlayerInfo(v)
}
