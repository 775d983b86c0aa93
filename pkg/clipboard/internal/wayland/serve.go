// Package wayland implements the small slice of the Wayland wire protocol
// needed to hold the clipboard with multiple MIME formats through
// zwlr_data_control_v1. Nothing here depends on a Wayland client library.
package wayland

import (
	"fmt"
	"syscall"
)

// Client-side object IDs. The client allocates from 2..0xfeffffff; a fixed
// assignment works because the session creates a fixed set of objects.
const (
	displayID  uint32 = 1
	registryID uint32 = 2
	syncID     uint32 = 3 // callback for the registry sync
	seatID     uint32 = 4
	managerID  uint32 = 5 // zwlr_data_control_manager_v1
	sourceID   uint32 = 6 // zwlr_data_control_source_v1
	deviceID   uint32 = 7 // zwlr_data_control_device_v1
	confirmID  uint32 = 8 // callback for the ownership sync
)

// globals holds the registry names discovered during the initial sync.
type globals struct {
	seat       uint32
	manager    uint32
	hasSeat    bool
	hasManager bool
}

// collectGlobals walks wl_registry.global events until the sync callback
// fires, recording the names of wl_seat and zwlr_data_control_manager_v1.
func collectGlobals(c *conn) (globals, error) {
	var g globals
	for {
		objectID, opcode, payload, fd, err := c.event()
		if err != nil {
			return g, err
		}
		if fd >= 0 {
			syscall.Close(fd) //nolint:errcheck
		}

		switch {
		case objectID == registryID && opcode == 0: // global
			if len(payload) < 4 {
				continue
			}
			name := order.Uint32(payload[:4])
			iface, _, parseErr := parseString(payload[4:])
			if parseErr != nil {
				continue
			}
			switch iface {
			case "wl_seat":
				g.seat = name
				g.hasSeat = true
			case "zwlr_data_control_manager_v1":
				g.manager = name
				g.hasManager = true
			}

		case objectID == syncID && opcode == 0: // done
			return g, nil
		}
	}
}

// Serve claims the clipboard through zwlr_data_control_v1 and blocks until
// another client takes ownership. Each paste request is answered by writing
// the bytes for the requested MIME type to the fd the compositor provides.
func Serve(formats map[string][]byte) error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.request(displayID, 1 /*get_registry*/, uint32Arg(registryID)); err != nil {
		return err
	}
	if err := c.request(displayID, 0 /*sync*/, uint32Arg(syncID)); err != nil {
		return err
	}

	g, err := collectGlobals(c)
	if err != nil {
		return err
	}
	if !g.hasSeat {
		return fmt.Errorf("wayland: wl_seat not found")
	}
	if !g.hasManager {
		return fmt.Errorf("wayland: zwlr_data_control_manager_v1 not found (compositor may not support wlr-data-control)")
	}

	// wl_registry.bind encodes new_id inline: [name][interface][version][id].
	if err := c.request(registryID, 0 /*bind*/, uint32Arg(g.seat),
		stringArg("wl_seat"), uint32Arg(1), uint32Arg(seatID)); err != nil {
		return err
	}
	if err := c.request(registryID, 0 /*bind*/, uint32Arg(g.manager),
		stringArg("zwlr_data_control_manager_v1"), uint32Arg(2), uint32Arg(managerID)); err != nil {
		return err
	}

	if err := c.request(managerID, 0 /*create_data_source*/, uint32Arg(sourceID)); err != nil {
		return err
	}
	for mimeType := range formats {
		if err := c.request(sourceID, 0 /*offer*/, stringArg(mimeType)); err != nil {
			return err
		}
	}

	if err := c.request(managerID, 1 /*get_data_device*/, uint32Arg(deviceID), uint32Arg(seatID)); err != nil {
		return err
	}
	if err := c.request(deviceID, 0 /*set_selection*/, uint32Arg(sourceID)); err != nil {
		return err
	}

	// Sync once more so ownership is confirmed before serving.
	if err := c.request(displayID, 0 /*sync*/, uint32Arg(confirmID)); err != nil {
		return err
	}
	for {
		objectID, opcode, _, fd, err := c.event()
		if err != nil {
			return err
		}
		if fd >= 0 {
			syscall.Close(fd) //nolint:errcheck
		}
		if objectID == confirmID && opcode == 0 { // done
			break
		}
	}

	// Serve paste requests until ownership is cancelled.
	for {
		objectID, opcode, payload, fd, err := c.event()
		if err != nil {
			// Connection closed means the compositor exited.
			return nil
		}

		if objectID != sourceID {
			if fd >= 0 {
				syscall.Close(fd) //nolint:errcheck
			}
			continue
		}

		switch opcode {
		case 0: // zwlr_data_control_source_v1.send
			mimeType, _, _ := parseString(payload)
			if fd >= 0 {
				if data, ok := formats[mimeType]; ok {
					syscall.Write(fd, data) //nolint:errcheck
				}
				syscall.Close(fd) //nolint:errcheck
			}
		case 1: // zwlr_data_control_source_v1.cancelled
			return nil
		}
	}
}
