// ABOUTME: Agenda and event CLI commands
// ABOUTME: Lists queued tasks, completes them, and records outreach outcomes
package cli

import (
	"context"
	"fmt"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/models"
)

// AgendaCommand prints the owner's queued tasks.
func AgendaCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("agenda")
	owner := fs.String("owner", "", "Owner email (required)")
	platform := fs.String("platform", "", "Filter by platform")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *owner == "" {
		return fmt.Errorf("--owner is required")
	}
	p, err := optionalPlatform(*platform)
	if err != nil {
		return err
	}

	tasks, err := env.Engine.Agenda(ctx, *owner, p)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		env.printf("Agenda is empty.\n")
		return nil
	}

	w := env.table()
	_, _ = fmt.Fprintln(w, "CUSTOMER\tCONTACT\tPLATFORM\tEXPERIMENT\tSEQ\tPAIN POINT")
	for _, t := range tasks {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			t.Customer.DisplayName(), t.Customer.ContactKey(t.Platform), t.Platform,
			t.ExperimentID, t.SequenceIdx, short(t.Content[models.SlotA]))
	}
	return w.Flush()
}

// CompleteTaskCommand removes a task from the agenda and records its outcome.
func CompleteTaskCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("complete-task")
	owner := fs.String("owner", "", "Owner email (required)")
	platform := fs.String("platform", "", "Task platform")
	phone := fs.String("phone", "", "Customer phone number")
	email := fs.String("email", "", "Customer email")
	seq := fs.String("seq", "", "Arm position of the task")
	status := fs.String("status", "completed", "Outcome status")
	success := fs.Bool("success", false, "Count the outcome as a success")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *owner == "" {
		return fmt.Errorf("--owner is required")
	}
	p, err := optionalPlatform(*platform)
	if err != nil {
		return err
	}

	task, err := env.Engine.CompleteTask(ctx, *owner, campaign.TaskMatch{
		Platform:    p,
		PhoneNumber: *phone,
		Email:       *email,
		SequenceIdx: *seq,
	}, &models.Event{Status: *status, Success: *success})
	if err != nil {
		return err
	}

	env.printf("✓ Completed task for %s (experiment %d, arm %d)\n", task.Customer.DisplayName(), task.ExperimentID, task.SequenceIdx)
	return nil
}

// RecordEventCommand stores an outreach event, counting it when it names an experiment.
func RecordEventCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("record-event")
	platform := fs.String("platform", "", "Email, LinkedIn, or Phone (required)")
	status := fs.String("status", "", "Event status, e.g. opened or replied")
	owner := fs.String("owner", "", "Owner of the experiment")
	customer := fs.String("customer-email", "", "Customer email")
	linkedIn := fs.String("linkedin", "", "Customer LinkedIn URL")
	phone := fs.String("phone", "", "Customer phone number")
	experiment := fs.Int64("experiment", 0, "Experiment id")
	generator := fs.Int64("generator", 0, "Experiment generator id")
	success := fs.Bool("success", false, "Count the event as a success")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := models.ParsePlatform(*platform)
	if err != nil {
		return err
	}

	event, err := env.Engine.SubmitEvent(ctx, models.Event{
		Platform:              p,
		Status:                *status,
		OwnerEmail:            *owner,
		CustomerEmail:         *customer,
		LinkedInURL:           *linkedIn,
		PhoneNumber:           *phone,
		ExperimentID:          *experiment,
		ExperimentGeneratorID: *generator,
		Success:               *success,
	})
	if err != nil {
		return err
	}
	env.printf("✓ Recorded %s event %s\n", event.Platform, event.DocID)
	return nil
}
