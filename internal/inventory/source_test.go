package inventory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource_YAML(t *testing.T) {
	src := NewFileSource("testdata/campus.yaml")
	assert.Equal(t, "file", src.Name())

	inv, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, inv.DeviceTypes, 3)
	assert.Len(t, inv.Devices, 4)
	assert.Len(t, inv.Sites, 1)
	assert.Len(t, inv.Locations, 2)
	assert.Len(t, inv.Cables, 4)

	assert.True(t, inv.DeviceTypes[0].HasTag("routeros"))
	require.NotNil(t, inv.Devices[0].Location)
	assert.Equal(t, uint32(100), *inv.Devices[0].Location)
	assert.Equal(t, RoleLoopback, inv.Devices[0].Interfaces[0].IPAddresses[0].Role)
	assert.Equal(t, uint32(2003), inv.Devices[1].FrontPorts[1].RearPort.ID)
	assert.Equal(t, TerminationRearPort, inv.Cables[0].A.Kind)
}

func TestFileSource_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	doc := `{
		"deviceTypes": [{"id": 1, "model": "RB", "tags": ["routeros"]}],
		"devices": [{"id": 5, "name": "r1", "deviceType": 1, "role": "router", "site": 2}],
		"sites": [{"id": 2, "name": "Lab", "physicalAddress": "Bench 3"}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	inv, err := NewFileSource(path).Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, inv.Devices, 1)
	assert.Equal(t, "r1", inv.Devices[0].Name)
	require.NotNil(t, inv.Devices[0].Site)
	assert.Equal(t, uint32(2), *inv.Devices[0].Site)
	assert.Equal(t, "Bench 3", inv.Sites[0].Address)
}

func TestFileSource_Errors(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "missing.yaml")).Fetch(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("devices: [unclosed"), 0o600))
	_, err = NewFileSource(path).Fetch(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFileSource("testdata/campus.yaml").Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("4711")
	require.NoError(t, err)
	assert.Equal(t, uint32(4711), id)

	for _, bad := range []string{"", "-1", "abc", "4294967296"} {
		_, err := ParseID(bad)
		assert.ErrorIs(t, err, ErrInvalidRecord, bad)
	}
}

func TestParseTerminationKind(t *testing.T) {
	tests := []struct {
		in   string
		want TerminationKind
	}{
		{"interface", TerminationInterface},
		{"dcim.frontport", TerminationFrontPort},
		{"RearPortType", TerminationRearPort},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTerminationKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseTerminationKind("dcim.powerport")
	assert.ErrorIs(t, err, ErrInvalidRecord)
}
