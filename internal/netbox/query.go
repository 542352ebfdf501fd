package netbox

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kneutral-org/inventory-dashboard/internal/inventory"
)

const fetchTopologyQuery = `query FetchTopology {
  device_type_list {
    id
    model
    tags { slug }
  }
  device_list {
    id
    name
    device_type { id }
    role { slug }
    site { id }
    location { id }
    interfaces {
      id
      name
      ip_addresses { address role }
    }
    rearports { id name }
    frontports {
      id
      name
      rear_port { id name }
    }
  }
  site_list {
    id
    name
    physical_address
    locations { id name }
  }
  cable_list {
    id
    a_terminations { ...PortEnd }
    b_terminations { ...PortEnd }
  }
}

fragment PortEnd on CableTerminationTerminationType {
  __typename
  ... on InterfaceType { id }
  ... on FrontPortType { id }
  ... on RearPortType { id }
}`

type idRef struct {
	ID string `json:"id"`
}

type slugRef struct {
	Slug string `json:"slug"`
}

type topologyData struct {
	DeviceTypes []struct {
		ID    string    `json:"id"`
		Model string    `json:"model"`
		Tags  []slugRef `json:"tags"`
	} `json:"device_type_list"`
	Devices []struct {
		ID         string   `json:"id"`
		Name       *string  `json:"name"`
		DeviceType idRef    `json:"device_type"`
		Role       *slugRef `json:"role"`
		Site       *idRef   `json:"site"`
		Location   *idRef   `json:"location"`
		Interfaces []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			IPAddresses []struct {
				Address string  `json:"address"`
				Role    *string `json:"role"`
			} `json:"ip_addresses"`
		} `json:"interfaces"`
		RearPorts  []portRef `json:"rearports"`
		FrontPorts []struct {
			ID       string  `json:"id"`
			Name     string  `json:"name"`
			RearPort portRef `json:"rear_port"`
		} `json:"frontports"`
	} `json:"device_list"`
	Sites []struct {
		ID              string    `json:"id"`
		Name            string    `json:"name"`
		PhysicalAddress string    `json:"physical_address"`
		Locations       []portRef `json:"locations"`
	} `json:"site_list"`
	Cables []struct {
		ID            string        `json:"id"`
		ATerminations []termination `json:"a_terminations"`
		BTerminations []termination `json:"b_terminations"`
	} `json:"cable_list"`
}

type portRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type termination struct {
	TypeName string `json:"__typename"`
	ID       string `json:"id"`
}

// inventory converts the response into inventory records. Cables with an end
// on a port type outside the topology model are skipped.
func (d *topologyData) inventory(logger zerolog.Logger) (*inventory.Inventory, error) {
	inv := &inventory.Inventory{}

	for _, dt := range d.DeviceTypes {
		id, err := inventory.ParseID(dt.ID)
		if err != nil {
			return nil, fmt.Errorf("device type: %w", err)
		}
		rec := inventory.DeviceType{ID: id, Model: dt.Model}
		for _, tag := range dt.Tags {
			rec.Tags = append(rec.Tags, tag.Slug)
		}
		inv.DeviceTypes = append(inv.DeviceTypes, rec)
	}

	for _, dev := range d.Devices {
		id, err := inventory.ParseID(dev.ID)
		if err != nil {
			return nil, fmt.Errorf("device: %w", err)
		}
		typeID, err := inventory.ParseID(dev.DeviceType.ID)
		if err != nil {
			return nil, fmt.Errorf("device %d type: %w", id, err)
		}
		rec := inventory.Device{ID: id, DeviceType: typeID}
		if dev.Name != nil {
			rec.Name = *dev.Name
		}
		if dev.Role != nil {
			rec.Role = dev.Role.Slug
		}
		if dev.Site != nil {
			if site, err := inventory.ParseID(dev.Site.ID); err == nil {
				rec.Site = &site
			}
		}
		if dev.Location != nil {
			if loc, err := inventory.ParseID(dev.Location.ID); err == nil {
				rec.Location = &loc
			}
		}

		for _, iface := range dev.Interfaces {
			ifID, err := inventory.ParseID(iface.ID)
			if err != nil {
				return nil, fmt.Errorf("device %d interface: %w", id, err)
			}
			ir := inventory.Interface{ID: ifID, Name: iface.Name}
			for _, addr := range iface.IPAddresses {
				ar := inventory.IPAddress{Address: addr.Address}
				if addr.Role != nil {
					ar.Role = strings.ToLower(*addr.Role)
				}
				ir.IPAddresses = append(ir.IPAddresses, ar)
			}
			rec.Interfaces = append(rec.Interfaces, ir)
		}
		for _, rp := range dev.RearPorts {
			rr, err := rp.rearPort()
			if err != nil {
				return nil, fmt.Errorf("device %d rear port: %w", id, err)
			}
			rec.RearPorts = append(rec.RearPorts, rr)
		}
		for _, fp := range dev.FrontPorts {
			fpID, err := inventory.ParseID(fp.ID)
			if err != nil {
				return nil, fmt.Errorf("device %d front port: %w", id, err)
			}
			rr, err := fp.RearPort.rearPort()
			if err != nil {
				return nil, fmt.Errorf("device %d front port %d: %w", id, fpID, err)
			}
			rec.FrontPorts = append(rec.FrontPorts, inventory.FrontPort{ID: fpID, Name: fp.Name, RearPort: rr})
		}
		inv.Devices = append(inv.Devices, rec)
	}

	for _, s := range d.Sites {
		id, err := inventory.ParseID(s.ID)
		if err != nil {
			return nil, fmt.Errorf("site: %w", err)
		}
		rec := inventory.Site{ID: id, Name: s.Name, Address: s.PhysicalAddress}
		for _, l := range s.Locations {
			locID, err := inventory.ParseID(l.ID)
			if err != nil {
				return nil, fmt.Errorf("site %d location: %w", id, err)
			}
			rec.Locations = append(rec.Locations, inventory.Location{ID: locID, Name: l.Name})
		}
		inv.Sites = append(inv.Sites, rec)
	}

	for _, c := range d.Cables {
		id, err := inventory.ParseID(c.ID)
		if err != nil {
			return nil, fmt.Errorf("cable: %w", err)
		}
		if len(c.ATerminations) == 0 || len(c.BTerminations) == 0 {
			logger.Debug().Uint32("cable", id).Msg("skipping cable with an open end")
			continue
		}
		a, okA, err := c.ATerminations[0].termination()
		if err != nil {
			return nil, fmt.Errorf("cable %d: %w", id, err)
		}
		b, okB, err := c.BTerminations[0].termination()
		if err != nil {
			return nil, fmt.Errorf("cable %d: %w", id, err)
		}
		if !okA || !okB {
			logger.Debug().Uint32("cable", id).Msg("skipping cable on unsupported port type")
			continue
		}
		inv.Cables = append(inv.Cables, inventory.Cable{ID: id, A: a, B: b})
	}

	return inv, nil
}

func (p portRef) rearPort() (inventory.RearPort, error) {
	id, err := inventory.ParseID(p.ID)
	if err != nil {
		return inventory.RearPort{}, err
	}
	return inventory.RearPort{ID: id, Name: p.Name}, nil
}

// termination reports false for port types the topology does not model, such
// as power or console ports.
func (t termination) termination() (inventory.Termination, bool, error) {
	kind, err := inventory.ParseTerminationKind(t.TypeName)
	if err != nil {
		return inventory.Termination{}, false, nil
	}
	id, err := inventory.ParseID(t.ID)
	if err != nil {
		return inventory.Termination{}, false, err
	}
	return inventory.Termination{Kind: kind, Port: id}, true, nil
}
