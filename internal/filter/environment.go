// Package filter provides CEL expressions for selecting devices of a topology.
package filter

import (
	"net/netip"
	"regexp"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/kneutral-org/inventory-dashboard/internal/topology"
)

// NewEnvironment creates the CEL environment with the device variables and
// helper functions.
func NewEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("device_id", cel.IntType),
		cel.Variable("device_name", cel.StringType),
		cel.Variable("device_category", cel.StringType),
		cel.Variable("device_has_routeros", cel.BoolType),
		cel.Variable("device_can_ping", cel.BoolType),
		cel.Variable("device_type", cel.StringType),

		// Empty when the device has no site or location.
		cel.Variable("site_name", cel.StringType),
		cel.Variable("location_name", cel.StringType),

		// Loopback address, or "" if none is configured.
		cel.Variable("loopback", cel.StringType),

		cel.Variable("port_count", cel.IntType),
		cel.Variable("port_names", cel.ListType(cel.StringType)),

		cel.Lib(&deviceFunctions{}),
	)
}

// BuildActivation exposes a device to CEL expressions.
func BuildActivation(d topology.DeviceRef) map[string]interface{} {
	activation := map[string]interface{}{
		"device_id":           int64(d.ID()),
		"device_name":         d.Name(),
		"device_category":     d.Category().String(),
		"device_has_routeros": d.HasRouterOS(),
		"device_can_ping":     d.CanPing(),
		"device_type":         d.DeviceType().Name(),
		"site_name":           "",
		"location_name":       "",
		"loopback":            "",
	}

	if site, ok := d.Site(); ok {
		activation["site_name"] = site.Name()
	}
	if loc, ok := d.Location(); ok {
		activation["location_name"] = loc.Name()
	}
	if addr, ok := d.LoopbackAddress(); ok {
		activation["loopback"] = addr.String()
	}

	ports := d.Device().Ports()
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.Name
	}
	activation["port_count"] = int64(len(ports))
	activation["port_names"] = names

	return activation
}

type deviceFunctions struct{}

// LibraryName implements cel.Library.
func (f *deviceFunctions) LibraryName() string {
	return "inventory.filter.functions"
}

// CompileOptions implements cel.Library.
func (f *deviceFunctions) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		// regexMatch(string, pattern)
		cel.Function("regexMatch",
			cel.Overload("regexmatch_string_string",
				[]*cel.Type{cel.StringType, cel.StringType},
				cel.BoolType,
				cel.BinaryBinding(matchesRegex),
			),
		),

		// inPrefix(address, prefix) - address lies inside the CIDR prefix
		cel.Function("inPrefix",
			cel.Overload("inprefix_string_string",
				[]*cel.Type{cel.StringType, cel.StringType},
				cel.BoolType,
				cel.BinaryBinding(inPrefix),
			),
		),

		cel.Function("lower",
			cel.Overload("lower_string",
				[]*cel.Type{cel.StringType},
				cel.StringType,
				cel.UnaryBinding(lowerString),
			),
		),
	}
}

// ProgramOptions implements cel.Library.
func (f *deviceFunctions) ProgramOptions() []cel.ProgramOption {
	return nil
}

func matchesRegex(lhs, rhs ref.Val) ref.Val {
	str, ok := lhs.(types.String)
	if !ok {
		return types.Bool(false)
	}
	pattern, ok := rhs.(types.String)
	if !ok {
		return types.Bool(false)
	}
	re, err := regexp.Compile(string(pattern))
	if err != nil {
		return types.NewErr("invalid regex pattern: %v", err)
	}
	return types.Bool(re.MatchString(string(str)))
}

func inPrefix(lhs, rhs ref.Val) ref.Val {
	addrStr, ok := lhs.(types.String)
	if !ok {
		return types.Bool(false)
	}
	prefixStr, ok := rhs.(types.String)
	if !ok {
		return types.Bool(false)
	}
	prefix, err := netip.ParsePrefix(string(prefixStr))
	if err != nil {
		return types.NewErr("invalid prefix: %v", err)
	}
	addr, err := netip.ParseAddr(string(addrStr))
	if err != nil {
		return types.Bool(false)
	}
	return types.Bool(prefix.Contains(addr))
}

func lowerString(val ref.Val) ref.Val {
	str, ok := val.(types.String)
	if !ok {
		return types.String("")
	}
	return types.String(strings.ToLower(string(str)))
}
