package server

import (
	"io"
	"net/http"

	"github.com/channel-guard/channelguard/pkg/compiler"
	"github.com/channel-guard/channelguard/pkg/session"
	"github.com/channel-guard/channelguard/pkg/store"
	"github.com/channel-guard/channelguard/pkg/topology"
	"github.com/channel-guard/channelguard/pkg/util"
)

type connectRequest struct {
	Host           string `json:"host"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	EnablePassword string `json:"enable_password"`
	Dialect        string `json:"dialect"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Host == "" || req.Username == "" || req.Password == "" {
		writeError(w, util.NewValidationError("Host, username, and password are required"))
		return
	}
	if !topology.ValidIP(req.Host) {
		writeError(w, util.NewValidationError("Invalid IP address: "+req.Host))
		return
	}

	hint := session.HintAuto
	switch topology.ParseDialect(req.Dialect) {
	case topology.DialectNextGen:
		hint = session.HintNextGen
	default:
		if req.Dialect != "" && req.Dialect != "auto" {
			hint = session.HintClassic
		}
	}

	st, err := s.ctrl.Connect(r.Context(), session.Options{
		Host:           req.Host,
		Username:       req.Username,
		Password:       req.Password,
		EnablePassword: req.EnablePassword,
		Dialect:        hint,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  st,
	})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Disconnect()
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleGetTopology(w http.ResponseWriter, r *http.Request) {
	topo, err := s.store.LoadActive()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"topology": topo,
		"stats":    compiler.Summarize(topo),
	})
}

func (s *Server) handleSaveTopology(w http.ResponseWriter, r *http.Request) {
	var topo topology.Topology
	if err := decodeBody(r, &topo); err != nil {
		writeError(w, err)
		return
	}
	if errs := topology.Validate(&topo); len(errs) > 0 {
		writeError(w, util.NewValidationError(errs...))
		return
	}
	if err := s.store.SaveActive(&topo); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Topology saved",
	})
}

func (s *Server) handleListTopologies(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List()
	if err != nil {
		writeError(w, err)
		return
	}
	if infos == nil {
		infos = []store.Info{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"files": infos})
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleSaveTopologyAs(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	topo, err := s.store.LoadActive()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.SaveAs(req.Name, topo); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleLoadTopology(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	topo, err := s.store.Activate(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"topology": topo,
		"stats":    compiler.Summarize(topo),
	})
}

func (s *Server) handleDeleteTopology(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Delete(req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleImportTopology accepts raw topology YAML as the request body.
func (s *Server) handleImportTopology(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, err)
		return
	}
	topo, err := topology.Decode(data)
	if err != nil {
		writeError(w, util.NewValidationError("Invalid YAML file: "+err.Error()))
		return
	}
	if errs := topology.Validate(topo); len(errs) > 0 {
		writeError(w, util.NewValidationError(errs...))
		return
	}
	if err := s.store.SaveActive(topo); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"topology": topo,
		"stats":    compiler.Summarize(topo),
	})
}

func (s *Server) handleExportTopology(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Export()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="channel-guard-topology.yml"`)
	w.Write(data)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	topo, err := s.store.LoadActive()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"commands":          compiler.Apply(topo),
		"verify_commands":   compiler.Verify(topo),
		"rollback_commands": compiler.Rollback(topo),
		"summary":           compiler.Summarize(topo),
	})
}

type deployRequest struct {
	SaveConfig *bool `json:"save_config"`
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	topo, err := s.store.LoadActive()
	if err != nil {
		writeError(w, err)
		return
	}

	var req deployRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	saveAfter := req.SaveConfig == nil || *req.SaveConfig

	s.adoptSessionDialect(topo)
	cmds := compiler.Apply(topo)
	out, err := s.ctrl.Execute(r.Context(), cmds)
	if err != nil {
		writeError(w, err)
		return
	}

	saveOut := ""
	if saveAfter {
		saveOut, err = s.ctrl.SaveConfig(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"output":        out,
		"save_output":   saveOut,
		"commands_sent": len(cmds),
	})
}

type verifyResult struct {
	Command string `json:"command"`
	Output  string `json:"output"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	topo, err := s.store.LoadActive()
	if err != nil {
		writeError(w, err)
		return
	}

	s.adoptSessionDialect(topo)
	var results []verifyResult
	for _, cmd := range compiler.Verify(topo) {
		out, err := s.ctrl.Run(r.Context(), cmd)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"error":   err.Error(),
				"results": results,
			})
			return
		}
		results = append(results, verifyResult{Command: cmd, Output: out})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": results,
	})
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	topo, err := s.store.LoadActive()
	if err != nil {
		writeError(w, err)
		return
	}

	s.adoptSessionDialect(topo)
	cmds := compiler.Rollback(topo)
	out, err := s.ctrl.Execute(r.Context(), cmds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"output":        out,
		"commands_sent": len(cmds),
	})
}

// adoptSessionDialect recompiles against the dialect of the live session so
// an auto-detected XE switch never receives classic tracking commands.
func (s *Server) adoptSessionDialect(topo *topology.Topology) {
	if s.ctrl.Connected() {
		topo.Dialect = string(s.ctrl.Platform().Dialect)
	}
}
