package main

import (
	"strings"

	"github.com/pterm/pterm"

	"github.com/luca-patrignani/zk-holdem/application/hand"
	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/protocol"
)

func cardsString(cards []poker.Card) string {
	s := make([]string, len(cards))
	for i, c := range cards {
		s[i] = c.String()
	}
	return strings.Join(s, " - ")
}

// describe names the best hand in cards, or returns "" when there are too few.
func describe(cards []poker.Card) string {
	if len(cards) < 5 {
		return ""
	}
	d, err := poker.Describe(cards)
	if err != nil {
		return ""
	}
	return d
}

func handPanel(name string, h hand.Hand, stake, balance uint64) pterm.Panel {
	pbox := pterm.DefaultBox.WithHorizontalPadding(10).WithTopPadding(1).WithBottomPadding(1)
	var status string
	switch {
	case h.Disputed:
		status = pterm.LightRed("Disputed deal")
	case h.Revealed:
		status = pterm.LightYellow("Revealed")
	case h.MyTurn():
		status = pterm.LightGreen("Your turn")
	default:
		status = pterm.LightCyan("Waiting")
	}
	cards := pterm.BgGreen.Sprint(cardsString(h.Cards()))
	body := pterm.Sprintf("%s\nStake: %d\nBankroll: %d\n%s", status, stake, balance, cards)
	if d := describe(append(h.Cards(), h.Community...)); d != "" {
		body += "\n" + d
	}
	return pterm.Panel{Data: pbox.WithTitle(name).WithTitleTopLeft().Sprint(body)}
}

func boardPanel(h hand.Hand) pterm.Panel {
	board := cardsString(h.Community)
	if board == "" {
		board = "no community cards"
	}
	if t := h.Turn; t != nil {
		board += pterm.Sprintf(" | Pot: %d | Bet: %d | To call: %d | Min raise: %d | Deadline: block %d",
			t.Pot, t.CurrentBet, t.ToCall, t.MinRaise, t.TurnDeadline)
	}
	return pterm.Panel{Data: pterm.BgGreen.Sprint("\n" + board + "\n")}
}

func resultPanel(h hand.Hand) pterm.Panel {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	res := h.Result
	var text string
	switch {
	case res == nil:
		return pterm.Panel{}
	case res.Won && res.Forfeited:
		text = pterm.Sprintfln("%s %d, the opponent forfeited", pterm.LightGreen("You won"), res.Payout)
	case res.Won:
		text = pterm.Sprintfln("%s %d", pterm.LightGreen("You won"), res.Payout)
	case res.Forfeited:
		text = pterm.Sprintfln("%s by forfeit", pterm.LightRed("You lost"))
	case res.Payout > 0:
		text = pterm.Sprintfln("%s, you take %d", pterm.LightYellow("Split pot"), res.Payout)
	default:
		text = pterm.Sprintfln("%s", pterm.LightRed("You lost"))
	}
	if len(res.OpponentCards) > 0 {
		text += pterm.Sprintfln("Opponent showed %s", cardsString(res.OpponentCards))
		if d := describe(append(append([]poker.Card(nil), res.OpponentCards...), h.Community...)); d != "" {
			text += pterm.Sprintfln("with %s", d)
		}
	}
	return pterm.Panel{Data: pbox.WithTitle(pterm.LightGreen("|SHOWDOWN|")).WithTitleTopCenter().Sprint(text)}
}

func printState(name string, h hand.Hand, stake, balance uint64, additional ...pterm.Panel) {
	dashboard := []pterm.Panel{handPanel(name, h, stake, balance)}
	dashboard = append(dashboard, additional...)
	pterm.DefaultPanel.WithPanels([][]pterm.Panel{
		{boardPanel(h)},
		dashboard,
	}).Render()
}

// tableInfo is printed when a node starts.
func tableInfo(title string, id protocol.Identity, rows ...[2]string) {
	data := pterm.TableData{{"identity", string(id)}}
	for _, r := range rows {
		data = append(data, []string{r[0], r[1]})
	}
	pterm.DefaultSection.Println(title)
	pterm.DefaultTable.WithData(data).Render()
}
