package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rushteam/recbot/core"
	"github.com/rushteam/recbot/engine"
)

const helpText = `commands (prefix every line with your external id):
  register <name>         bind your id to a display name
  rate <1-5> <title>      rate an item; the model is retrained right away
  recommend <title>       predict your rating for an item
  top [n]                 list unrated items with the highest predicted rating
  help                    show this text
  quit                    exit`

// handle 执行一行命令，返回回复文本以及是否退出。
func handle(ctx context.Context, e *engine.Engine, line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false
	}
	if len(fields) == 1 {
		switch strings.ToLower(fields[0]) {
		case "help":
			return helpText, false
		case "quit", "exit":
			return "", true
		}
		return invalidInput(), false
	}

	ext, cmd, args := fields[0], strings.ToLower(fields[1]), fields[2:]
	switch cmd {
	case "register":
		if len(args) == 0 {
			return invalidInput(), false
		}
		name := strings.Join(args, " ")
		id, err := e.RegisterUser(ctx, ext, name)
		if err != nil {
			return engine.Describe(err).Text, false
		}
		return engine.DescribeRegistration(id, name).Text, false

	case "rate":
		if len(args) < 2 {
			return invalidInput(), false
		}
		value, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return engine.Describe(core.ErrInvalidRating.Wrap(err, args[0])).Text, false
		}
		sub, err := e.SubmitRating(ctx, ext, strings.Join(args[1:], " "), value)
		if err != nil {
			return engine.Describe(err).Text, false
		}
		return engine.DescribeSubmission(sub).Text, false

	case "recommend":
		if len(args) == 0 {
			return invalidInput(), false
		}
		p, err := e.Recommend(ctx, ext, strings.Join(args, " "))
		if err != nil {
			return engine.Describe(err).Text, false
		}
		return engine.DescribePrediction(p).Text, false

	case "top":
		n := 0
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v <= 0 {
				return invalidInput(), false
			}
			n = v
		}
		items, err := e.TopN(ctx, ext, n)
		if err != nil {
			return engine.Describe(err).Text, false
		}
		return formatTop(items), false

	case "help":
		return helpText, false
	}
	return invalidInput(), false
}

func invalidInput() string {
	return engine.Describe(core.ErrInvalidInput).Text + " Type \"help\" for usage."
}

func formatTop(items []*core.Item) string {
	if len(items) == 0 {
		return "Nothing to recommend yet."
	}
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s (%.2f)", i+1, it.Title, it.Score)
	}
	return b.String()
}
