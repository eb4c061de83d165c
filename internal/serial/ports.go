package serial

import (
	"fmt"
	"sort"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// PortInfo describes a port found on the system.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// Label is the port name plus USB details when known.
func (p PortInfo) Label() string {
	if d := p.Detail(); d != "" {
		return fmt.Sprintf("%s (%s)", p.Name, d)
	}
	return p.Name
}

// Detail describes a USB port as "Product VID:PID", or is empty.
func (p PortInfo) Detail() string {
	if !p.IsUSB {
		return ""
	}
	if p.Product != "" {
		return fmt.Sprintf("%s %s:%s", p.Product, p.VID, p.PID)
	}
	return fmt.Sprintf("%s:%s", p.VID, p.PID)
}

// ListPorts returns the available ports sorted by name. When detailed
// enumeration is unsupported it falls back to plain names.
func ListPorts() ([]PortInfo, error) {
	var result []PortInfo

	details, err := enumerator.GetDetailedPortsList()
	if err == nil {
		for _, p := range details {
			result = append(result, PortInfo{
				Name:         p.Name,
				IsUSB:        p.IsUSB,
				VID:          p.VID,
				PID:          p.PID,
				SerialNumber: p.SerialNumber,
				Product:      p.Product,
			})
		}
	} else {
		names, listErr := serial.GetPortsList()
		if listErr != nil {
			return nil, fmt.Errorf("list serial ports: %w", listErr)
		}
		for _, n := range names {
			result = append(result, PortInfo{Name: n})
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
