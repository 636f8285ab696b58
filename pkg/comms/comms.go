// Package comms provides the serial-port plumbing under the OSDP
// controller: opening ports, enumerating them, and prompting the operator
// to pick one when no port was configured.
package comms

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"
)

// readTimeout is the per-Read timeout on opened ports. The controller
// enforces its own overall reply deadline on top of this.
const readTimeout = 50 * time.Millisecond

// OpenPort opens the named serial port at the given baud rate, 8N1.
func OpenPort(port string, baud int) (io.ReadWriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", port, err)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("configuring %s: %w", port, err)
	}
	return p, nil
}

// ListPorts enumerates the serial ports present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("listing serial ports: %w", err)
	}
	return ports, nil
}

// PromptPort lists the available serial ports on w and reads the operator's
// choice from r. It returns an empty string, not an error, when no port can
// be resolved: no ports present, end of input, or an unrecognized choice.
func PromptPort(r io.Reader, w io.Writer) (string, error) {
	ports, err := ListPorts()
	if err != nil {
		return "", err
	}
	return promptFrom(r, w, ports), nil
}

// promptFrom runs the numbered chooser over a known port list.
func promptFrom(r io.Reader, w io.Writer, ports []string) string {
	if len(ports) == 0 {
		fmt.Fprintln(w, "No serial ports found.")
		return ""
	}

	fmt.Fprintln(w, "Available serial ports:")
	for i, p := range ports {
		fmt.Fprintf(w, " %d) %s\n", i+1, p)
	}
	fmt.Fprintf(w, "Select port [1-%d]: ", len(ports))

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return ""
	}
	choice, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || choice < 1 || choice > len(ports) {
		return ""
	}
	return ports[choice-1]
}
