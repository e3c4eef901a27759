package ytracectl

import (
	"context"
	"fmt"
	"io"
	"net"
)

// Send dials the control socket, writes one newline-terminated command,
// reads the whole response until the server closes the connection, and
// returns it. The context bounds the dial and, via its deadline if any, the
// exchange.
func Send(ctx context.Context, socketPath, command string) (string, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return "", fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if _, err := io.WriteString(conn, command+"\n"); err != nil {
		return "", fmt.Errorf("send command: %w", err)
	}

	response, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	return string(response), nil
}
