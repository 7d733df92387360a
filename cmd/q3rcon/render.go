package main

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/Yallamaztar/q3rcon/rcon"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// summaryKeys are the getstatus variables shown above the player table, when present.
var summaryKeys = []string{"sv_hostname", "mapname", "g_gametype", "gamename", "version"}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func renderSummary(values map[string]string, playerCount int) string {
	out := ""
	for _, key := range summaryKeys {
		if value, ok := values[key]; ok {
			out += fmt.Sprintf("%-12s %s\n", key, rcon.StripColors(value))
		}
	}

	players := strconv.Itoa(playerCount)
	if maxClients, ok := values["sv_maxclients"]; ok {
		players += "/" + maxClients
	}

	return out + fmt.Sprintf("%-12s %s", "players", players)
}

func renderValues(values map[string]string) string {
	tbl := newTable("Key", "Value")
	for _, key := range slices.Sorted(maps.Keys(values)) {
		tbl.Row(key, rcon.StripColors(values[key]))
	}

	return tbl.String()
}

func renderPlayers(players []rcon.Player, withAddress bool) string {
	headers := []string{"#", "Name", "Frags", "Ping"}
	if withAddress {
		headers = append(headers, "Address", "Bot")
	}

	tbl := newTable(headers...)
	for _, player := range players {
		row := []string{
			strconv.Itoa(player.Num),
			player.CleanName(),
			strconv.Itoa(player.Frags),
			strconv.Itoa(player.Ping),
		}
		if withAddress {
			row = append(row, player.Address, botLabel(player.Bot))
		}
		tbl.Row(row...)
	}

	return tbl.String()
}

func botLabel(bot rcon.BotFlag) string {
	switch bot {
	case rcon.BotYes:
		return "yes"
	case rcon.BotNo:
		return "no"
	default:
		return "?"
	}
}
