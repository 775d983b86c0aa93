package wayland

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

var order = binary.LittleEndian

// conn is a buffered connection to the Wayland compositor socket.
type conn struct {
	fd      int
	readBuf []byte
	fds     []int
}

// dial connects to the compositor socket named by WAYLAND_DISPLAY under
// XDG_RUNTIME_DIR.
func dial() (*conn, error) {
	runtime := os.Getenv("XDG_RUNTIME_DIR")
	if runtime == "" {
		return nil, fmt.Errorf("wayland: XDG_RUNTIME_DIR not set")
	}
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = "wayland-0"
	}
	path := filepath.Join(runtime, display)

	fd, err := syscall.Socket(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		return nil, err
	}
	if err := syscall.Connect(fd, &syscall.SockaddrUnix{Name: path}); err != nil {
		syscall.Close(fd) //nolint:errcheck
		return nil, fmt.Errorf("wayland: connect %s: %w", path, err)
	}
	return &conn{fd: fd}, nil
}

func (c *conn) close() {
	syscall.Close(c.fd) //nolint:errcheck
}

// request sends one request message to objectID with the given opcode and
// pre-encoded arguments.
func (c *conn) request(objectID uint32, opcode uint16, args ...[]byte) error {
	var argLen int
	for _, a := range args {
		argLen += len(a)
	}
	size := uint16(8 + argLen)
	buf := make([]byte, 8, size)
	order.PutUint32(buf[0:], objectID)
	order.PutUint32(buf[4:], uint32(opcode)|uint32(size)<<16)
	for _, a := range args {
		buf = append(buf, a...)
	}
	_, err := syscall.Write(c.fd, buf)
	return err
}

// event reads the next complete event. fd is -1 unless the compositor passed
// a file descriptor via SCM_RIGHTS with this message.
func (c *conn) event() (objectID uint32, opcode uint16, payload []byte, fd int, err error) {
	fd = -1
	for {
		if len(c.readBuf) >= 8 {
			word := order.Uint32(c.readBuf[4:8])
			size := int(word >> 16)
			if size >= 8 && len(c.readBuf) >= size {
				objectID = order.Uint32(c.readBuf[0:4])
				opcode = uint16(word & 0xffff)
				payload = make([]byte, size-8)
				copy(payload, c.readBuf[8:size])
				c.readBuf = c.readBuf[size:]
				if len(c.fds) > 0 {
					fd = c.fds[0]
					c.fds = c.fds[1:]
				}
				return
			}
		}

		// Need more data from the socket.
		buf := make([]byte, 4096)
		oob := make([]byte, syscall.CmsgSpace(4*8)) // room for up to 8 fds
		n, oobn, _, _, recvErr := syscall.Recvmsg(c.fd, buf, oob, 0)
		if recvErr != nil {
			err = recvErr
			return
		}
		if n == 0 {
			err = fmt.Errorf("wayland: connection closed")
			return
		}
		c.readBuf = append(c.readBuf, buf[:n]...)

		if oobn > 0 {
			msgs, parseErr := syscall.ParseSocketControlMessage(oob[:oobn])
			if parseErr != nil {
				continue
			}
			for _, msg := range msgs {
				rights, parseErr := syscall.ParseUnixRights(&msg)
				if parseErr != nil {
					continue
				}
				c.fds = append(c.fds, rights...)
			}
		}
	}
}

// uint32Arg encodes a uint32 request argument.
func uint32Arg(v uint32) []byte {
	b := make([]byte, 4)
	order.PutUint32(b, v)
	return b
}

// stringArg encodes a string request argument: uint32 length including the
// null terminator, then the bytes padded to 4-byte alignment.
func stringArg(s string) []byte {
	raw := append([]byte(s), 0)
	padded := (len(raw) + 3) &^ 3
	buf := make([]byte, 4+padded)
	order.PutUint32(buf[0:], uint32(len(raw)))
	copy(buf[4:], raw)
	return buf
}

// parseString decodes a string argument from an event payload and returns the
// remaining bytes.
func parseString(data []byte) (string, []byte, error) {
	if len(data) < 4 {
		return "", data, fmt.Errorf("wayland: short string length field")
	}
	length := int(order.Uint32(data[:4]))
	data = data[4:]
	if length == 0 {
		return "", data, nil
	}
	padded := (length + 3) &^ 3
	if len(data) < padded {
		return "", data, fmt.Errorf("wayland: short string data")
	}
	return string(data[:length-1]), data[padded:], nil
}
