/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Seednode/tete/audio"
	"github.com/Seednode/tete/cards"
	"github.com/Seednode/tete/gesture"
	"github.com/Seednode/tete/round"
	"github.com/Seednode/tete/session"
)

var (
	styleDefault = tcell.StyleDefault
	styleTitle   = tcell.StyleDefault.Bold(true)
	styleMuted   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleChosen  = tcell.StyleDefault.Reverse(true)
	styleCard    = tcell.StyleDefault.Bold(true).Foreground(tcell.ColorWhite)
	styleLow     = tcell.StyleDefault.Bold(true).Foreground(tcell.ColorRed)
	styleCorrect = tcell.StyleDefault.Background(tcell.ColorGreen).Foreground(tcell.ColorBlack)
	stylePass    = tcell.StyleDefault.Background(tcell.ColorOrange).Foreground(tcell.ColorBlack)
	styleError   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleSuccess = tcell.StyleDefault.Foreground(tcell.ColorGreen)
)

// terminal plays a session with the arrow keys, for when no phone is
// around.
type terminal struct {
	screen tcell.Screen
	sess   *session.Session
	clock  gesture.Clock

	cursor  int
	pending gesture.Stopper
	updates chan struct{}
}

func newTerminal(screen tcell.Screen, sess *session.Session, clock gesture.Clock) *terminal {
	t := &terminal{
		screen:  screen,
		sess:    sess,
		clock:   clock,
		updates: make(chan struct{}, 1),
	}

	sess.Subscribe(func(session.View) {
		select {
		case t.updates <- struct{}{}:
		default:
		}
	})

	return t
}

func (t *terminal) run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	t.draw()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok || !t.handle(ev) {
				return nil
			}
			t.draw()

		case <-t.updates:
			t.draw()
		}
	}
}

// handle applies one event and reports whether to keep running.
func (t *terminal) handle(ev tcell.Event) bool {
	view := t.sess.View()

	if view.Phase != round.PhaseReady && t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}

	switch ev := ev.(type) {
	case *tcell.EventResize:
		t.screen.Sync()
		return true

	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlC || isRune(ev, 'q') {
			return false
		}

		switch view.Phase {
		case round.PhaseHome:
			t.handleHome(ev, view)
		case round.PhaseReady:
			t.handleReady(ev)
		case round.PhasePlaying:
			t.handlePlaying(ev)
		case round.PhaseResults:
			t.handleResults(ev)
		}
	}

	return true
}

func (t *terminal) handleHome(ev *tcell.EventKey, view session.View) {
	switch {
	case ev.Key() == tcell.KeyUp || isRune(ev, 'k'):
		if t.cursor > 0 {
			t.cursor--
		}
	case ev.Key() == tcell.KeyDown || isRune(ev, 'j'):
		if t.cursor < len(view.Packs)-1 {
			t.cursor++
		}
	case ev.Key() == tcell.KeyEnter:
		if t.cursor < len(view.Packs) {
			t.sess.Select(view.Packs[t.cursor].ID, view.Mode)
		}
	case isRune(ev, 'm'):
		_ = t.sess.SetMode(view.Mode.Next())
	case isRune(ev, 's'):
		t.sess.SetSound(!view.SoundEnabled)
	}
}

func (t *terminal) handleReady(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEnter:
		if t.pending == nil {
			t.pending = t.clock.AfterFunc(session.ReadyDelay, func() {
				t.sess.Begin()
			})
			t.notify()
		}
	case tcell.KeyEscape:
		if t.pending != nil {
			t.pending.Stop()
			t.pending = nil
		}
		t.sess.GoHome()
	}
}

func (t *terminal) handlePlaying(ev *tcell.EventKey) {
	switch {
	case ev.Key() == tcell.KeyDown:
		t.sess.Key(gesture.KeyDown)
	case ev.Key() == tcell.KeyUp:
		t.sess.Key(gesture.KeyUp)
	case isRune(ev, 'e'):
		t.sess.End()
	case ev.Key() == tcell.KeyEscape:
		t.sess.GoHome()
	}
}

func (t *terminal) handleResults(ev *tcell.EventKey) {
	switch {
	case isRune(ev, 'r'):
		t.sess.Replay()
	case isRune(ev, 'h') || ev.Key() == tcell.KeyEscape:
		t.sess.GoHome()
	}
}

func (t *terminal) notify() {
	select {
	case t.updates <- struct{}{}:
	default:
	}
}

func (t *terminal) text(x, y int, style tcell.Style, s string) int {
	for _, r := range s {
		t.screen.SetContent(x, y, r, nil, style)
		x += max(runewidth.RuneWidth(r), 1)
	}
	return x
}

func (t *terminal) centered(y int, style tcell.Style, s string) {
	w, _ := t.screen.Size()
	t.text(max((w-runewidth.StringWidth(s))/2, 0), y, style, s)
}

func (t *terminal) fill(style tcell.Style) {
	w, h := t.screen.Size()
	for y := range h {
		for x := range w {
			t.screen.SetContent(x, y, ' ', nil, style)
		}
	}
}

func (t *terminal) draw() {
	view := t.sess.View()

	t.screen.Clear()

	switch view.Phase {
	case round.PhaseHome:
		t.drawHome(view)
	case round.PhaseReady:
		t.drawReady(view)
	case round.PhasePlaying:
		t.drawPlaying(view)
	case round.PhaseResults:
		t.drawResults(view)
	}

	t.drawNotices(view)

	t.screen.Show()
}

func (t *terminal) drawHome(view session.View) {
	_, h := t.screen.Size()

	t.text(1, 0, styleTitle, "Têtê")

	sound := "sound off"
	if view.SoundEnabled {
		sound = "sound on"
	}
	t.text(8, 0, styleMuted, sound)

	x := 1
	for _, m := range view.Modes {
		style := styleDefault
		if m.Mode == view.Mode {
			style = styleChosen
		}
		x = t.text(x, 2, style, fmt.Sprintf(" %s %ds ", m.Label, m.Duration)) + 1
		if m.Mode == view.Mode {
			t.text(1, 3, styleMuted, m.Description)
		}
	}

	if t.cursor >= len(view.Packs) {
		t.cursor = max(len(view.Packs)-1, 0)
	}

	for i, pack := range view.Packs {
		y := 5 + i
		if y >= h-2 {
			break
		}

		style := styleDefault
		marker := "  "
		if i == t.cursor {
			style = styleChosen
			marker = "> "
		}
		x := t.text(1, y, style, marker+pack.Icon+" "+pack.Name)
		t.text(x+1, y, styleMuted, fmt.Sprintf("%d cards", len(pack.Cards)))
	}

	t.text(1, h-1, styleMuted, "↑/↓ choose  enter select  m mode  s sound  q quit")
}

func (t *terminal) drawReady(view session.View) {
	_, h := t.screen.Size()

	if pack, ok := findPack(view, view.Round.PackID); ok {
		t.centered(h/2-2, styleTitle, pack.Icon+" "+pack.Name)
	}
	t.centered(h/2, styleMuted, fmt.Sprintf("%d seconds", view.Round.Duration))

	if t.pending != nil {
		t.centered(h/2+2, styleCard, "Get ready...")
	} else {
		t.centered(h/2+2, styleDefault, "↓ correct  ↑ pass")
	}

	t.text(1, h-1, styleMuted, "enter start  esc back  q quit")
}

func (t *terminal) drawPlaying(view session.View) {
	w, h := t.screen.Size()

	switch view.Input.CurrentAction {
	case gesture.ActionCorrect:
		t.fill(styleCorrect)
	case gesture.ActionPass:
		t.fill(stylePass)
	}

	timer := styleTitle
	if view.Round.TimeRemaining <= 10 {
		timer = styleLow
	}
	t.text(1, 0, timer, fmt.Sprintf("%d", view.Round.TimeRemaining))

	progress := fmt.Sprintf("%d/%d", min(view.Round.Cursor+1, view.Round.Total), view.Round.Total)
	t.text(max(w-len(progress)-1, 0), 0, styleMuted, progress)

	card := "All cards done!"
	if view.Round.Card != nil {
		card = view.Round.Card.Text
	}
	t.centered(h/2, styleCard, card)

	t.text(1, h-1, styleMuted, "↓ correct  ↑ pass  e end  esc home")
}

func (t *terminal) drawResults(view session.View) {
	_, h := t.screen.Size()

	t.text(1, 0, styleTitle, "Time's up!")
	t.text(1, 2, styleDefault, fmt.Sprintf("Correct %d   Passed %d   Accuracy %d%%",
		view.Round.Correct, view.Round.Passed, view.Round.Accuracy))

	switch {
	case view.NewBest:
		t.text(1, 3, styleSuccess, "New best!")
	case view.BestScore != nil:
		t.text(1, 3, styleMuted, fmt.Sprintf("Best: %d", *view.BestScore))
	}

	for i, r := range view.Round.Results {
		y := 5 + i
		if y >= h-2 {
			break
		}

		mark, style := "✓", styleSuccess
		if r.Outcome == round.OutcomePass {
			mark, style = "↷", styleMuted
		}
		x := t.text(1, y, style, mark)
		t.text(x+1, y, styleDefault, r.Card.Text)
	}

	t.text(1, h-1, styleMuted, "r play again  h choose pack  q quit")
}

func (t *terminal) drawNotices(view session.View) {
	if len(view.Notices) == 0 {
		return
	}

	_, h := t.screen.Size()
	n := view.Notices[len(view.Notices)-1]

	style := styleDefault
	switch n.Kind {
	case session.NoticeError:
		style = styleError
	case session.NoticeSuccess:
		style = styleSuccess
	}

	t.text(1, h-2, style, n.Message)
}

func findPack(view session.View, id string) (cards.Pack, bool) {
	for _, pack := range view.Packs {
		if pack.ID == id {
			return pack, true
		}
	}
	return cards.Pack{}, false
}

func isRune(ev *tcell.EventKey, r rune) bool {
	return ev.Key() == tcell.KeyRune && ev.Rune() == r
}

// terminalLogger keeps the screen clean: logs go to a file in the data
// directory when verbose, and nowhere otherwise.
func terminalLogger(cfg *Config) (zerolog.Logger, func(), error) {
	if !cfg.verbose {
		return zerolog.New(io.Discard), func() {}, nil
	}

	if err := os.MkdirAll(cfg.dataDir, 0o755); err != nil {
		return zerolog.Logger{}, nil, err
	}

	f, err := os.OpenFile(filepath.Join(cfg.dataDir, "tete.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}

	return zerolog.New(f).Level(zerolog.DebugLevel).With().Timestamp().Logger(), func() { _ = f.Close() }, nil
}

func playTerminal(ctx context.Context, cfg *Config) error {
	log, closeLog, err := terminalLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	cfg.logger = log

	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.close()

	opts := []session.Option{
		session.WithCapability(gesture.Ungated{Available: false}),
		session.WithMode(cfg.defaultMode),
		session.WithLogger(log),
	}

	if !cfg.noSound {
		speaker, err := audio.OpenSpeaker(log)
		if err != nil {
			log.Warn().Err(err).Msg("no speaker, playing silently")
		} else {
			defer speaker.Close()
			opts = append(opts, session.WithCues(speaker))
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	sess := session.New(svc.library, svc.scores, svc.prefs, opts...)
	defer sess.Close()

	return newTerminal(screen, sess, gesture.SystemClock()).run(ctx)
}

func newPlayCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play in this terminal with the arrow keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return playTerminal(cmd.Context(), cfg)
		},
	}
}
