// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highway

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func drain(a Agenda) []DelayedAction {
	var items []DelayedAction
	for {
		item, ok := a.Pop()
		if !ok {
			return items
		}
		items = append(items, item)
	}
}

func TestAgendaOrdersByTick(t *testing.T) {
	require := require.New(t)

	agenda := NewAgenda()
	agenda.Schedule(300, StartRound{RoundID: 300})
	agenda.Schedule(100, StartRound{RoundID: 100})
	agenda.Schedule(200, CreateOmegaMessage{RoundID: 100})

	items := drain(agenda)
	require.Len(items, 3)
	require.Equal(Tick(100), items[0].Tick)
	require.Equal(Tick(200), items[1].Tick)
	require.Equal(Tick(300), items[2].Tick)
}

func TestAgendaTieBreaksStartRoundFirst(t *testing.T) {
	require := require.New(t)

	agenda := NewAgenda()
	agenda.Schedule(100, CreateOmegaMessage{RoundID: 68})
	agenda.Schedule(100, StartRound{RoundID: 100})

	items := drain(agenda)
	require.Len(items, 2)
	require.IsType(StartRound{}, items[0].Action)
	require.IsType(CreateOmegaMessage{}, items[1].Action)
}

func TestAgendaMerge(t *testing.T) {
	require := require.New(t)

	a := NewAgenda()
	a.Schedule(100, StartRound{RoundID: 100})

	b := NewAgenda()
	b.Schedule(50, StartRound{RoundID: 50})
	b.Schedule(150, CreateOmegaMessage{RoundID: 100})

	a.Merge(b)
	require.Equal(3, a.Len())

	first, ok := a.Peek()
	require.True(ok)
	require.Equal(Tick(50), first.Tick)
}

func TestAgendaAddDeduplicates(t *testing.T) {
	require := require.New(t)

	agenda := NewAgenda()
	item := DelayedAction{Tick: 100, Action: StartRound{RoundID: 100}}
	agenda.Add([]DelayedAction{item, item})
	require.Equal(1, agenda.Len())
}
