package main

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Yallamaztar/q3rcon/rcon"
	"github.com/stretchr/testify/require"
)

// startServer answers getstatus, getinfo and rcon packets on a loopback UDP socket.
func startServer(t *testing.T, password string) string {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	go func() {
		buf := make([]byte, 2048)
		for {
			n, addr, errRead := conn.ReadFrom(buf)
			if errRead != nil {
				return
			}

			var reply string
			request := strings.TrimSuffix(strings.TrimPrefix(string(buf[:n]), "\xff\xff\xff\xff"), "\n")
			switch {
			case request == "getstatus":
				reply = "statusResponse\n\\sv_hostname\\^1Test^7 Arena\\mapname\\q3dm17\\sv_maxclients\\8\n" +
					"10 33 \"^4Visor\"\n"
			case request == "getinfo":
				reply = "infoResponse\n\\hostname\\Test Arena\\protocol\\68\n"
			case strings.HasPrefix(request, `rcon "`+password+`" status`):
				reply = "print\nmap: q3dm17\nnum score ping name lastmsg address qport rate\n" +
					"--- ----- ---- ---- ------- ------- ----- ----\n" +
					"  0    10   33 Visor^7 0 127.0.0.1:27960 1 25000\n" +
					"  1     2    0 Sarge^7 0 bot 0 16384\n"
			case strings.HasPrefix(request, `rcon "`+password+`" sv_hostname`):
				reply = "print\n\"sv_hostname\" is:\"^1Test^7 Arena^7\" default:\"noname^7\"\n"
			case strings.HasPrefix(request, `rcon "`+password+`" `):
				reply = "print\n" + strings.TrimPrefix(request, `rcon "`+password+`" `) + "\n"
			default:
				reply = "print\nBad rconpassword.\n"
			}

			_, _ = conn.WriteTo([]byte("\xff\xff\xff\xff"+reply), addr)
		}
	}()

	return conn.LocalAddr().String()
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestStatusCommand(t *testing.T) {
	server := startServer(t, "pw")

	out, err := execute(t, "status", server, "--timeout", "1s")
	require.NoError(t, err)
	require.Contains(t, out, server)
	require.Contains(t, out, "Test Arena")
	require.Contains(t, out, "q3dm17")
	require.Contains(t, out, "1/8")
	require.Contains(t, out, "Visor")
}

func TestStatusCommandReportsEachFailure(t *testing.T) {
	server := startServer(t, "pw")

	out, err := execute(t, "status", server, "not-an-address", "--timeout", "1s")
	require.ErrorIs(t, err, rcon.ErrInvalidAddress)
	require.Contains(t, out, "Visor")
	require.Contains(t, out, "not-an-address")
}

func TestInfoCommand(t *testing.T) {
	server := startServer(t, "pw")

	out, err := execute(t, "info", server)
	require.NoError(t, err)
	require.Contains(t, out, "hostname")
	require.Contains(t, out, "Test Arena")
	require.Contains(t, out, "68")
}

func TestPlayersCommand(t *testing.T) {
	server := startServer(t, "pw")

	out, err := execute(t, "players", "--server", server, "--password", "pw")
	require.NoError(t, err)
	require.Contains(t, out, "127.0.0.1:27960")
	require.Contains(t, out, "Sarge")
	require.Contains(t, out, "yes")
}

func TestRconCommand(t *testing.T) {
	server := startServer(t, "pw")

	out, err := execute(t, "rcon", "--server", server, "--password", "pw", "say", "hello")
	require.NoError(t, err)
	require.Equal(t, "say hello\n", out)

	_, err = execute(t, "rcon", "--server", server, "--password", "wrong", "status")
	require.ErrorIs(t, err, rcon.ErrAuthentication)
}

func TestCvarCommand(t *testing.T) {
	server := startServer(t, "pw")

	out, err := execute(t, "cvar", "sv_hostname", "--server", server, "--password", "pw")
	require.NoError(t, err)
	require.Equal(t, "Test Arena\n", out)
}

func TestConfigFileServers(t *testing.T) {
	server := startServer(t, "pw")
	configPath := filepath.Join(t.TempDir(), "q3rcon.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("servers:\n  - "+server+"\n"), 0o600))

	out, err := execute(t, "status", "--config", configPath)
	require.NoError(t, err)
	require.Contains(t, out, "Visor")
}

func TestRenderPlayers(t *testing.T) {
	players := []rcon.Player{
		{Num: 0, Name: "^1Red", Frags: 3, Ping: 40, Address: "1.2.3.4:27960", Bot: rcon.BotNo},
		{Num: 1, Name: "Sarge", Frags: -1, Ping: 0, Address: "bot", Bot: rcon.BotYes},
	}

	out := renderPlayers(players, true)
	require.Contains(t, out, "Red")
	require.NotContains(t, out, "^1")
	require.Contains(t, out, "1.2.3.4:27960")
	require.Contains(t, out, "-1")

	require.NotContains(t, renderPlayers(players, false), "Address")
}
