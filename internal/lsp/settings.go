package lsp

import (
	"encoding/json"

	"quill/internal/config"
)

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	if s.applySettings(params.Settings) {
		s.recheckAll()
	}
	return nil
}

// applySettings reads {"quill": {"language": ..., "trace": ...}} and reports
// whether the check language changed.
func (s *Server) applySettings(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var settings lspSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		s.logf("ignoring malformed settings: %v", err)
		return false
	}
	language := ""
	if settings.Quill.Language != nil {
		tag, err := config.NormalizeLanguage(*settings.Quill.Language)
		if err != nil {
			s.logf("ignoring language setting: %v", err)
			s.showMessage(messageTypeWarning, "quill: "+err.Error())
		} else {
			language = tag
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if settings.Quill.Trace != nil {
		s.traceLSP = *settings.Quill.Trace
	}
	if language == "" || language == s.language {
		return false
	}
	s.language = language
	s.settingsGen++
	return true
}
