// Package monitoring serves the progress of a characterization run over
// HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/sramchar/experiment"
	"github.com/sarchlab/sramchar/monitoring/web"
	"github.com/sarchlab/sramchar/pipeline"
)

// Test states reported by the monitor.
const (
	StatePending = "pending"
	StateRunning = "running"
	StateDone    = "done"
	StateSkipped = "skipped"
	StateFailed  = "failed"
)

// TestStatus is the latest known state of a test.
type TestStatus struct {
	ID    string `json:"id"`
	Stage string `json:"stage"`
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// Monitor is a pipeline hook that exposes the progress of a run through a
// web server.
type Monitor struct {
	portNumber      int
	profileDuration time.Duration

	lock   sync.Mutex
	order  []string
	descs  map[string]*experiment.Descriptor
	status map[string]*TestStatus
	bars   map[pipeline.Stage]*ProgressBar
	stages []pipeline.Stage
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		profileDuration: time.Second,
		descs:           make(map[string]*experiment.Descriptor),
		status:          make(map[string]*TestStatus),
		bars:            make(map[pipeline.Stage]*ProgressBar),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterBatch announces the tests and stages of a run. It creates one
// progress bar per stage.
func (m *Monitor) RegisterBatch(
	stages []pipeline.Stage,
	descs []*experiment.Descriptor,
) {
	m.lock.Lock()
	defer m.lock.Unlock()

	objDirs := make(map[string]bool)

	for _, d := range descs {
		objDirs[d.ObjDir] = true

		if _, found := m.descs[d.ID]; found {
			continue
		}

		m.order = append(m.order, d.ID)
		m.descs[d.ID] = d
		m.status[d.ID] = &TestStatus{ID: d.ID, State: StatePending}
	}

	for _, s := range stages {
		total := uint64(len(descs))
		if s == pipeline.StageBuild {
			total = uint64(len(objDirs))
		}

		if _, found := m.bars[s]; !found {
			m.stages = append(m.stages, s)
		}

		m.bars[s] = &ProgressBar{
			ID:    xid.New().String(),
			Name:  s.String(),
			Total: total,
		}
	}
}

// Func updates the progress with a stage event.
func (m *Monitor) Func(ctx pipeline.HookCtx) {
	run, ok := ctx.Item.(*pipeline.StageRun)
	if !ok {
		return
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	st, found := m.status[run.Descriptor.ID]
	if !found {
		st = &TestStatus{ID: run.Descriptor.ID}
		m.order = append(m.order, st.ID)
		m.descs[st.ID] = run.Descriptor
		m.status[st.ID] = st
	}

	st.Stage = run.Stage.String()
	bar := m.bars[run.Stage]

	switch ctx.Pos {
	case pipeline.HookPosStageStart:
		st.State = StateRunning
		if bar != nil {
			bar.IncrementInProgress(1)
		}
	case pipeline.HookPosStageSkip:
		st.State = StateSkipped
		if bar != nil {
			bar.IncrementFinished(1)
		}
	case pipeline.HookPosStageEnd:
		st.State = StateDone
		if bar != nil {
			bar.MoveInProgressToFinished(1)
		}
	case pipeline.HookPosStageFail:
		st.State = StateFailed
		st.Error = run.Err.Error()
		if bar != nil {
			bar.MoveInProgressToFailed(1)
		}
	}
}

// StartServer starts the monitor as a web server and returns its address.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", "localhost:"+strconv.Itoa(m.portNumber))
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring run with %s\n", url)

	go func() {
		err := http.Serve(listener, m.router())
		dieOnErr(err)
	}()

	return url, nil
}

// OpenBrowser opens the monitoring page in the default browser.
func OpenBrowser(url string) error {
	return browser.OpenURL(url)
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/tests", m.listTests)
	r.HandleFunc("/api/test/{id}", m.testDetails)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	bars := make([]progressRsp, 0, len(m.stages))
	for _, s := range m.stages {
		bars = append(bars, m.bars[s].snapshot())
	}
	m.lock.Unlock()

	writeJSON(w, bars)
}

func (m *Monitor) listTests(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	tests := make([]TestStatus, 0, len(m.order))
	for _, id := range m.order {
		tests = append(tests, *m.status[id])
	}
	m.lock.Unlock()

	writeJSON(w, tests)
}

func (m *Monitor) testDetails(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	m.lock.Lock()
	d, found := m.descs[id]
	m.lock.Unlock()

	if !found {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Test not found"))
		dieOnErr(err)

		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(d)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
