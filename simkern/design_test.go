package simkern

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	data := []byte(`design: widget
ports:
  - name: enable
    id: 0
    width: 1
    direction: in
    kind: register
  - name: total
    id: 1
    width: 32
    direction: out
    kind: counter
`)
	d, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if d.Name != "widget" {
		t.Errorf("Name = %q, want %q", d.Name, "widget")
	}
	if len(d.Ports) != 2 {
		t.Fatalf("len(Ports) = %d, want 2", len(d.Ports))
	}
	want := PortSpec{Name: "total", ID: 1, Width: 32, Direction: DirectionOut, Kind: KindCounter}
	if d.Ports[1] != want {
		t.Errorf("Ports[1] = %+v, want %+v", d.Ports[1], want)
	}
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{
			"missing design name",
			"ports:\n  - {name: a, id: 0, width: 1, direction: in, kind: register}\n",
		},
		{
			"no ports",
			"design: empty\n",
		},
		{
			"zero width",
			"design: d\nports:\n  - {name: a, id: 0, width: 0, direction: in, kind: register}\n",
		},
		{
			"duplicate id",
			"design: d\nports:\n" +
				"  - {name: a, id: 0, width: 1, direction: in, kind: register}\n" +
				"  - {name: b, id: 0, width: 1, direction: in, kind: register}\n",
		},
		{
			"duplicate name",
			"design: d\nports:\n" +
				"  - {name: a, id: 0, width: 1, direction: in, kind: register}\n" +
				"  - {name: a, id: 1, width: 1, direction: in, kind: register}\n",
		},
		{
			"bad direction",
			"design: d\nports:\n  - {name: a, id: 0, width: 1, direction: sideways, kind: register}\n",
		},
		{
			"bad kind",
			"design: d\nports:\n  - {name: a, id: 0, width: 1, direction: in, kind: flipflop}\n",
		},
		{
			"counter too wide",
			"design: d\nports:\n  - {name: a, id: 0, width: 65, direction: out, kind: counter}\n",
		},
		{
			"counter not readable",
			"design: d\nports:\n  - {name: a, id: 0, width: 8, direction: in, kind: counter}\n",
		},
		{
			"clock not writable",
			"design: d\nports:\n  - {name: a, id: 0, width: 1, direction: out, kind: clock}\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatal("Parse succeeded, want error")
			}
			if !errors.Is(err, ErrInvalidDesign) {
				t.Errorf("error %v does not wrap ErrInvalidDesign", err)
			}
		})
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("WIDGET_WIDTH", "24")
	path := filepath.Join(t.TempDir(), "design.yaml")
	manifest := "design: widget\nports:\n" +
		"  - {name: total, id: 0, width: ${WIDGET_WIDTH:-8}, direction: out, kind: counter}\n"
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if d.Ports[0].Width != 24 {
		t.Errorf("Width = %d, want 24", d.Ports[0].Width)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load of missing manifest succeeded, want error")
	}
}

func TestDefaultDesign(t *testing.T) {
	d, err := DefaultDesign()
	if err != nil {
		t.Fatalf("DefaultDesign returned error: %v", err)
	}
	if d.Name != "toy-counter" {
		t.Errorf("Name = %q, want %q", d.Name, "toy-counter")
	}
	if len(d.Ports) != 4 {
		t.Fatalf("len(Ports) = %d, want 4", len(d.Ports))
	}
	scratch := d.Ports[3]
	if scratch.Name != "scratch" || scratch.Width != 8 || scratch.Direction != DirectionInOut {
		t.Errorf("Ports[3] = %+v, want 8-bit inout scratch", scratch)
	}
}
