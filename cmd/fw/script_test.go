package main

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"rsc.io/script"
)

// TestMain lets the compiled test binary double as the fw binary. The
// script harness re-executes it with FW_SCRIPT_CHILD set, and the
// child runs the real command instead of the test suite.
func TestMain(m *testing.M) {
	if os.Getenv("FW_SCRIPT_CHILD") == "1" {
		main()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// TestScripts runs every script under testdata/script. Each script gets
// a fresh working directory with HOME pointed inside it, so commands
// start from an empty cache and an unset endpoint.
func TestScripts(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "script", "*.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no scripts found under testdata/script")
	}

	exe, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}

	for _, file := range files {
		file := file
		name := strings.TrimSuffix(filepath.Base(file), ".txt")
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			runScript(t, file, exe)
		})
	}
}

func runScript(t *testing.T, file, exe string) {
	engine := script.NewEngine()
	engine.Quiet = !testing.Verbose()
	engine.Cmds["fw"] = fwCmd(exe)
	engine.Cmds["sheetd"] = sheetdCmd(t)

	work := t.TempDir()
	env := []string{
		"WORK=" + work,
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + filepath.Join(work, "home"),
		"TMPDIR=" + work,
		"FW_SCRIPT_CHILD=1",
	}

	state, err := script.NewState(context.Background(), work, env)
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(file)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var log strings.Builder
	err = engine.Execute(state, file, bufio.NewReader(f), &log)
	if closeErr := state.CloseAndWait(&log); err == nil {
		err = closeErr
	}
	if log.Len() > 0 {
		t.Log(log.String())
	}
	if err != nil {
		t.Fatal(err)
	}
}

// fwCmd runs the fw binary with the script's environment and working
// directory, capturing output for the stdout and stderr checks.
func fwCmd(exe string) script.Cmd {
	return script.Command(
		script.CmdUsage{
			Summary: "run the fw command line",
			Args:    "args...",
		},
		func(s *script.State, args ...string) (script.WaitFunc, error) {
			cmd := exec.Command(exe, args...)
			cmd.Dir = s.Getwd()
			cmd.Env = s.Environ()
			var stdout, stderr strings.Builder
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
			runErr := cmd.Run()
			wait := func(*script.State) (string, string, error) {
				return stdout.String(), stderr.String(), runErr
			}
			return wait, nil
		})
}

// sheetdCmd starts an in-memory sheet endpoint for the rest of the
// script and points FW_ENDPOINT_URL at it.
func sheetdCmd(t *testing.T) script.Cmd {
	return script.Command(
		script.CmdUsage{
			Summary: "start a stub sheet endpoint and set FW_ENDPOINT_URL",
		},
		func(s *script.State, args ...string) (script.WaitFunc, error) {
			if len(args) > 0 {
				return nil, script.ErrUsage
			}
			srv := httptest.NewServer(newSheetServer())
			t.Cleanup(srv.Close)
			return nil, s.Setenv("FW_ENDPOINT_URL", srv.URL)
		})
}

// sheetServer speaks the endpoint wire protocol from memory: GET with
// an action query for reads, a JSON body POST for writes.
type sheetServer struct {
	mu         sync.Mutex
	activities []map[string]any
	hotspots   []map[string]any
	incidents  []map[string]any
	settings   map[string]any
}

func newSheetServer() *sheetServer {
	return &sheetServer{settings: map[string]any{}}
}

func (sv *sheetServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sv.mu.Lock()
	defer sv.mu.Unlock()

	if r.Method == http.MethodGet {
		var data any
		switch r.URL.Query().Get("action") {
		case "getActivities":
			data = sv.activities
		case "getHotspots":
			data = sv.hotspots
		case "getFireIncidents":
			data = sv.incidents
		case "getSettings":
			data = sv.settings
		default:
			writeSheetError(w, "unknown action")
			return
		}
		writeSheetSuccess(w, data)
		return
	}

	var req struct {
		Action   string          `json:"action"`
		Sheet    string          `json:"sheet"`
		Data     json.RawMessage `json:"data"`
		IsUpdate bool            `json:"isUpdate"`
		ID       string          `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSheetError(w, err.Error())
		return
	}

	switch req.Action {
	case "saveActivity":
		sv.activities = upsertRow(sv.activities, req.Data)
	case "deleteActivity":
		sv.activities = removeRow(sv.activities, req.ID)
	case "saveHotspot":
		sv.hotspots = upsertRow(sv.hotspots, req.Data)
	case "deleteHotspot":
		sv.hotspots = removeRow(sv.hotspots, req.ID)
	case "saveFireIncident":
		sv.incidents = upsertRow(sv.incidents, req.Data)
	case "saveFireIncidentsBatch":
		var batch []map[string]any
		if err := json.Unmarshal(req.Data, &batch); err != nil {
			writeSheetError(w, err.Error())
			return
		}
		sv.incidents = append(sv.incidents, batch...)
	case "deleteFireIncident":
		sv.incidents = removeRow(sv.incidents, req.ID)
	case "saveSettings":
		var doc map[string]any
		if err := json.Unmarshal(req.Data, &doc); err != nil {
			writeSheetError(w, err.Error())
			return
		}
		for k, v := range doc {
			sv.settings[k] = v
		}
	case "reset":
		sv.activities, sv.hotspots, sv.incidents = nil, nil, nil
		sv.settings = map[string]any{}
	default:
		writeSheetError(w, "unknown action "+req.Action)
		return
	}
	writeSheetSuccess(w, nil)
}

func upsertRow(rows []map[string]any, raw json.RawMessage) []map[string]any {
	var rec map[string]any
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rows
	}
	id, _ := rec["id"].(string)
	for i, row := range rows {
		if rid, _ := row["id"].(string); rid == id {
			rows[i] = rec
			return rows
		}
	}
	return append(rows, rec)
}

func removeRow(rows []map[string]any, id string) []map[string]any {
	out := rows[:0]
	for _, row := range rows {
		if rid, _ := row["id"].(string); rid != id {
			out = append(out, row)
		}
	}
	return out
}

func writeSheetSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{"status": "success"}
	if data != nil {
		body["data"] = data
	}
	json.NewEncoder(w).Encode(body)
}

func writeSheetError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "error", "message": msg})
}
