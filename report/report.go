// Package report extracts power figures from the reports written by the
// power analysis tool.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/sarchlab/sramchar/experiment"
)

// ErrInstanceNotFound is returned when a hierarchical report has no line
// for the requested instance.
var ErrInstanceNotFound = errors.New("instance not found in report")

// MissingArtifactError is returned when a report file does not exist.
type MissingArtifactError struct {
	Path string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("report %s does not exist", e.Path)
}

// FormatError is returned when a report does not have the expected layout.
type FormatError struct {
	Path   string
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Reason)
	}

	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// HierPower is the power breakdown of one instance. Values are in the unit
// of the report.
type HierPower struct {
	Leakage   float64
	Internal  float64
	Switching float64
	Total     float64
}

// Profile summarizes a power-over-time trace.
type Profile struct {
	// Duration is the simulated time covered, in ns.
	Duration float64

	// AveragePower excludes the first and last samples.
	AveragePower float64

	Samples int
}

// Result is everything parsed for one test.
type Result struct {
	TestID string
	HierPower
	Profile

	// Energy is AveragePower × Duration.
	Energy float64
}

var timeUnitPattern = regexp.MustCompile(`simulation time \((\w+)\)`)

var timeUnitScale = map[string]float64{
	"ns": 1,
	"ps": 1e-3,
	"fs": 1e-6,
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &MissingArtifactError{Path: path}
	}

	return f, err
}

// ParseHierPower returns the power of the instance from a hierarchical power
// report. The matching line ends with the instance path and holds leakage,
// internal, switching, and total power in its third to sixth columns. A
// report without the instance yields ErrInstanceNotFound.
func ParseHierPower(path, inst string) (HierPower, error) {
	f, err := open(path)
	if err != nil {
		return HierPower{}, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || tokens[len(tokens)-1] != inst {
			continue
		}

		if len(tokens) < 7 {
			return HierPower{}, &FormatError{
				Path:   path,
				Line:   lineNo,
				Reason: fmt.Sprintf("expected 7 columns, got %d", len(tokens)),
			}
		}

		values := [4]float64{}
		for i := range values {
			v, err := strconv.ParseFloat(tokens[2+i], 64)
			if err != nil {
				return HierPower{}, &FormatError{
					Path: path, Line: lineNo, Reason: err.Error(),
				}
			}

			values[i] = v
		}

		return HierPower{
			Leakage:   values[0],
			Internal:  values[1],
			Switching: values[2],
			Total:     values[3],
		}, nil
	}

	if err := scanner.Err(); err != nil {
		return HierPower{}, err
	}

	return HierPower{}, fmt.Errorf("%s in %s: %w", inst, path,
		ErrInstanceNotFound)
}

// ParsePowerProfile summarizes a power profile data file. The first line is
// a header naming the time unit; every following line with two fields is a
// (time, power) sample.
func ParsePowerProfile(path string) (Profile, error) {
	f, err := open(path)
	if err != nil {
		return Profile{}, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return Profile{}, err
		}

		return Profile{}, &FormatError{Path: path, Reason: "empty profile"}
	}

	m := timeUnitPattern.FindStringSubmatch(scanner.Text())
	if m == nil {
		return Profile{}, &FormatError{
			Path: path, Line: 1, Reason: "header has no simulation time unit",
		}
	}

	scale, ok := timeUnitScale[m[1]]
	if !ok {
		return Profile{}, &FormatError{
			Path: path, Line: 1, Reason: fmt.Sprintf("unknown time unit %q", m[1]),
		}
	}

	var times, powers []float64

	lineNo := 1
	for scanner.Scan() {
		lineNo++

		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}

		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return Profile{}, &FormatError{
				Path: path, Line: lineNo, Reason: err.Error(),
			}
		}

		p, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Profile{}, &FormatError{
				Path: path, Line: lineNo, Reason: err.Error(),
			}
		}

		times = append(times, t*scale)
		powers = append(powers, p)
	}

	if err := scanner.Err(); err != nil {
		return Profile{}, err
	}

	if len(powers) < 3 {
		return Profile{}, &FormatError{
			Path:   path,
			Reason: fmt.Sprintf("need at least 3 samples, got %d", len(powers)),
		}
	}

	sum := 0.0
	for _, p := range powers[1 : len(powers)-1] {
		sum += p
	}

	return Profile{
		Duration:     times[len(times)-1] - times[0],
		AveragePower: sum / float64(len(powers)-2),
		Samples:      len(powers),
	}, nil
}

// ParseDescriptor parses the hierarchical report and the power profile of a
// test.
func ParseDescriptor(d *experiment.Descriptor) (Result, error) {
	hier, err := ParseHierPower(d.HierPowerReportPath(), d.Inst)
	if err != nil {
		return Result{}, err
	}

	profile, err := ParsePowerProfile(d.PowerProfilePath())
	if err != nil {
		return Result{}, err
	}

	return Result{
		TestID:    d.ID,
		HierPower: hier,
		Profile:   profile,
		Energy:    profile.AveragePower * profile.Duration,
	}, nil
}
