package rcon_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/Yallamaztar/q3rcon/rcon"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	values, players, hasPlayers := rcon.ParseStatus("\\mapname\\q3dm1\\g_gametype\\0\n2 50 \"Alice\"\n")
	require.True(t, hasPlayers)
	require.Equal(t, map[string]string{"mapname": "q3dm1", "g_gametype": "0"}, values)
	require.Len(t, players, 1)
	require.Equal(t, "Alice", players[0].Name)
	require.Equal(t, 2, players[0].Frags)
	require.Equal(t, 50, players[0].Ping)
	require.Empty(t, players[0].Address)
	require.Equal(t, rcon.BotUnknown, players[0].Bot)
}

func TestParseStatusNoPlayerBlock(t *testing.T) {
	values, players, hasPlayers := rcon.ParseStatus("\\sv_hostname\\Test\\mapname\\q3dm17")
	require.False(t, hasPlayers)
	require.Nil(t, players)
	require.Equal(t, map[string]string{"sv_hostname": "Test", "mapname": "q3dm17"}, values)
}

func TestParseStatusEmptyServer(t *testing.T) {
	values, players, hasPlayers := rcon.ParseStatus("\\mapname\\q3dm17\n")
	require.True(t, hasPlayers)
	require.Empty(t, players)
	require.NotNil(t, players)
	require.Equal(t, "q3dm17", values["mapname"])
}

func TestParseStatusOddElements(t *testing.T) {
	values, _, _ := rcon.ParseStatus("\\a\\1\\b\\2\\dangling")
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, values)
}

func TestParseStatusOnlyFirstNewlineValueSplits(t *testing.T) {
	values, players, hasPlayers := rcon.ParseStatus("\\a\\1\n0 10 \"one\"\n\\b\\2\nrest")
	require.True(t, hasPlayers)
	require.Equal(t, "1", values["a"])
	require.Equal(t, "2\nrest", values["b"])
	require.Len(t, players, 1)
	require.Equal(t, "one", players[0].Name)
}

func TestParseStatusPlayers(t *testing.T) {
	const block = "12 48 \"^1Red^7Baron\"\n" +
		"-3 999 \"name with \"quotes\" inside\"\r\n" +
		"\n" +
		"0 0 \"\"\n"

	players := rcon.ParseStatusPlayers(block)
	require.Len(t, players, 3)

	require.Equal(t, rcon.Player{Num: 0, Name: "^1Red^7Baron", Frags: 12, Ping: 48, Bot: rcon.BotUnknown}, players[0])
	require.Equal(t, "RedBaron", players[0].CleanName())
	require.Equal(t, "^1Red^7Baron", players[0].String())

	require.Equal(t, 1, players[1].Num)
	require.Equal(t, -3, players[1].Frags)
	require.Equal(t, 999, players[1].Ping)
	require.Equal(t, `name with "quotes" inside`, players[1].Name)

	require.Equal(t, 2, players[2].Num)
	require.Empty(t, players[2].Name)
}

func TestParseStatusPlayersLegacySlots(t *testing.T) {
	players := rcon.ParseStatusPlayers("1 2 \"a\"\n3 4 \"b\"\n", rcon.LegacySlotNumbers())
	require.Len(t, players, 2)
	for _, player := range players {
		require.Equal(t, 1, player.Num)
	}
}

func TestParseStatusPlayersSkipsMalformed(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	players := rcon.ParseStatusPlayers("5 10 \"Good\"\nnot a player\n5 10 Unquoted\n7 20 \"Also good\"\n",
		rcon.ParseLogger(logger))
	require.Len(t, players, 2)
	require.Equal(t, "Good", players[0].Name)
	require.Equal(t, "Also good", players[1].Name)
	require.Contains(t, logs.String(), "not a player")
	require.Contains(t, logs.String(), "Unquoted")
}

func TestParseRconPlayers(t *testing.T) {
	players := rcon.ParseRconPlayers("header1\nheader2\nheader3\n1   10  25 Bob   0 1.2.3.4:27960 1234 25000\n")
	require.Equal(t, []rcon.Player{{
		Num:     1,
		Name:    "Bob",
		Frags:   10,
		Ping:    25,
		Address: "1.2.3.4:27960",
		Bot:     rcon.BotNo,
	}}, players)
}

func TestParseRconPlayersServerOutput(t *testing.T) {
	const status = "map: q3dm17\n" +
		"num score ping name            lastmsg address               qport rate\n" +
		"--- ----- ---- --------------- ------- --------------------- ----- -----\n" +
		"  0     5    0 Sarge^7              50 bot                       0 16384\n" +
		"  1    -2   48 Player^7              0 192.168.1.20:27960     4242 25000\n" +
		"  2     0  CNCT Loading^7            0 10.0.0.2:27960          111 25000\n" +
		"  3     1   30 short\n" +
		"\n"

	players := rcon.ParseRconPlayers(status)
	require.Len(t, players, 2)

	require.Equal(t, 0, players[0].Num)
	require.Equal(t, "Sarge^7", players[0].Name)
	require.Equal(t, "bot", players[0].Address)
	require.Equal(t, rcon.BotYes, players[0].Bot)

	require.Equal(t, 1, players[1].Num)
	require.Equal(t, -2, players[1].Frags)
	require.Equal(t, 48, players[1].Ping)
	require.Equal(t, "192.168.1.20:27960", players[1].Address)
	require.Equal(t, rcon.BotNo, players[1].Bot)
}

func TestParseRconPlayersShortHeader(t *testing.T) {
	require.Empty(t, rcon.ParseRconPlayers(""))
	require.Empty(t, rcon.ParseRconPlayers("map: q3dm17\n"))
	require.Empty(t, rcon.ParseRconPlayers("map: q3dm17\nnum score ping name"))
}

func TestParseInfoString(t *testing.T) {
	info := rcon.ParseInfoString("\\hostname\\My Server\\mapname\\q3dm6\\clients\\3\\sv_maxclients\\16\n")
	require.Equal(t, map[string]string{
		"hostname":      "My Server",
		"mapname":       "q3dm6",
		"clients":       "3",
		"sv_maxclients": "16",
	}, info)

	require.Empty(t, rcon.ParseInfoString(""))
}
