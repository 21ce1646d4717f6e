package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dropkick0/ai-call-agent/internal/calendar"
	"github.com/Dropkick0/ai-call-agent/internal/dialog"
)

// Instructor builds the behavioral instructions sent with each
// session.update. Once the greeting is done, the day's free calendar slots
// are appended so the engine can offer them; a failed lookup degrades to no
// slots.
type Instructor struct {
	Base   string
	Slots  calendar.SlotProvider // nil disables slot offers
	Logger *slog.Logger
	Now    func() time.Time // defaults to time.Now
}

// Instructions returns the instruction text for a state and reports whether
// a calendar lookup failed along the way.
func (i *Instructor) Instructions(ctx context.Context, state dialog.State) (string, bool) {
	if state == dialog.AwaitingGreeting || i.Slots == nil {
		return i.Base, false
	}

	now := time.Now
	if i.Now != nil {
		now = i.Now
	}

	slots, err := i.Slots.FreeSlotsForDay(ctx, now())
	if err != nil {
		i.Logger.Warn("calendar lookup failed, offering no slots",
			slog.String("error", err.Error()),
		)
		return i.Base, true
	}
	if len(slots) == 0 {
		return i.Base, false
	}

	var b strings.Builder
	b.WriteString(i.Base)
	b.WriteString("\n\nToday's available slots:\n")
	for _, s := range slots {
		fmt.Fprintf(&b, "- %s\n", s.Format())
	}
	return strings.TrimRight(b.String(), "\n"), false
}
