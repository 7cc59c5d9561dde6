package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"riptide/internal/report"
	"riptide/internal/scenario"
	"riptide/internal/ui"
)

type runOutcome struct {
	rep *report.Report
	err error
}

// runScenarioWithUI drives the scenario on a background goroutine while a
// Bubble Tea program renders its progress events.
func runScenarioWithUI(spec scenario.Spec) (*report.Report, error) {
	events := make(chan scenario.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		rep, err := scenario.Run(spec, scenario.ChannelSink{Ch: events})
		outcomeCh <- runOutcome{rep: rep, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(spec.Name, spec.Units(), events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.rep, uiErr
	}
	return outcome.rep, outcome.err
}
