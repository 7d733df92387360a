package rcon

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// rconHeaderLines is the number of lines preceding the player table in an rcon status reply:
//
//	map: q3dm17
//	num score ping name            lastmsg address               qport rate
//	--- ----- ---- --------------- ------- --------------------- ----- -----
const rconHeaderLines = 3

// frags ping "name"
var statusPlayerRx = regexp.MustCompile(`^(-?\d+) (\d+) "(.*)"$`)

func newParseSettings(opts []ParseOption) parseSettings {
	s := parseSettings{logger: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ParseStatus decodes a getstatus payload of the form \k1\v1\k2\v2...\kn\vn where the first
// value containing a newline carries the player list after it. hasPlayers reports whether such
// a value was found; when it is false players is nil and any previously known list still stands.
func ParseStatus(payload string, opts ...ParseOption) (values map[string]string, players []Player, hasPlayers bool) {
	parts := strings.Split(payload, `\`)
	values = make(map[string]string, len(parts)/2)

	for i := 1; i+1 < len(parts); i += 2 {
		key, val := parts[i], parts[i+1]
		if !hasPlayers {
			if before, after, ok := strings.Cut(val, "\n"); ok {
				val = before
				players = ParseStatusPlayers(after, opts...)
				hasPlayers = true
			}
		}
		values[key] = val
	}

	return values, players, hasPlayers
}

// ParseInfoString decodes a single \key\value info string such as the getinfo reply
func ParseInfoString(s string) map[string]string {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, `\`)
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}

	kv := make(map[string]string, len(parts)/2)
	for i := 0; i+1 < len(parts); i += 2 {
		kv[parts[i]] = parts[i+1]
	}
	return kv
}

// ParseStatusPlayers decodes the player block of a getstatus reply, one `frags ping "name"`
// line per player. Lines that do not match are logged and skipped.
func ParseStatusPlayers(text string, opts ...ParseOption) []Player {
	s := newParseSettings(opts)

	players := make([]Player, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		match := statusPlayerRx.FindStringSubmatch(line)
		if match == nil {
			s.logger.Warn("Skipping unmatched player line", slog.String("line", line))
			continue
		}

		frags, errFrags := strconv.Atoi(match[1])
		ping, errPing := strconv.Atoi(match[2])
		if errFrags != nil || errPing != nil {
			s.logger.Warn("Skipping player line with out of range numbers", slog.String("line", line))
			continue
		}

		num := len(players)
		if s.legacySlots {
			num = 1
		}

		players = append(players, Player{
			Num:   num,
			Name:  match[3],
			Frags: frags,
			Ping:  ping,
			Bot:   BotUnknown,
		})
	}

	return players
}

// ParseRconPlayers decodes the player table printed by the rcon status command. The header
// lines are skipped, then every line is read as space separated columns
// num score ping name lastmsg address qport rate. Lines that are too short or carry
// non-numeric num/score/ping columns are dropped.
func ParseRconPlayers(text string, opts ...ParseOption) []Player {
	s := newParseSettings(opts)

	lines := strings.Split(text, "\n")
	lines = lines[min(rconHeaderLines, len(lines)):]

	players := make([]Player, 0, len(lines))
	for _, line := range lines {
		line = collapseSpaces(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}

		fields := strings.Split(line, " ")
		if len(fields) < 6 {
			s.logger.Debug("Skipping short rcon player line", slog.String("line", line))
			continue
		}

		num, errNum := strconv.Atoi(fields[0])
		score, errScore := strconv.Atoi(fields[1])
		ping, errPing := strconv.Atoi(fields[2])
		if errNum != nil || errScore != nil || errPing != nil {
			s.logger.Debug("Skipping rcon player line with non-numeric columns", slog.String("line", line))
			continue
		}

		bot := BotNo
		if fields[5] == "bot" {
			bot = BotYes
		}

		players = append(players, Player{
			Num:     num,
			Name:    fields[3],
			Frags:   score,
			Ping:    ping,
			Address: fields[5],
			Bot:     bot,
		})
	}

	return players
}
