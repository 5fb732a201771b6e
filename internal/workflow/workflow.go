package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrWrongStep     = errors.New("operation not valid on the current step")
	ErrRecordLocked  = errors.New("record is being submitted or already submitted")
	ErrBadTeamSlot   = errors.New("unknown team slot")
	ErrNotAMatchTeam = errors.New("team is not part of this match")
	ErrBadMode       = errors.New("unknown match mode")
	ErrBadSide       = errors.New("unknown side")
	ErrBadStep       = errors.New("cannot jump to that step")
	ErrBadAwardRef   = errors.New("award reference does not address a slot")
)

// Snapshot is a race-free copy of a workflow's state.
type Snapshot struct {
	WorkflowID string            `json:"workflowId"`
	Step       Step              `json:"-"`
	StepName   string            `json:"step"`
	Version    int               `json:"version"`
	Submitting bool              `json:"submitting"`
	Record     *Record           `json:"record"`
	Result     *SubmissionResult `json:"result,omitempty"`
}

// Workflow owns one draft record and processes commands sequentially on a
// single goroutine. External reads (rosters, hero catalog) and submission
// run in goroutines that post completion commands back into the loop.
type Workflow struct {
	id       string
	commands chan Command
	subsMu   sync.Mutex
	subs     []chan Event
	deps     Services
	log      *logrus.Entry

	record     *Record
	step       Step
	version    int
	submitting bool
	result     *SubmissionResult

	heroes       []Hero
	heroesLoaded bool

	// Roster fetch bookkeeping: a generation per side pins in-flight
	// fetches to the selection that requested them.
	rosterGen    map[Side]uint64
	rosterCancel map[Side]context.CancelFunc
	rosterCache  map[int][]RosterPlayer

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a workflow with a fresh empty record.
func New(id string, deps Services, log *logrus.Logger) *Workflow {
	return &Workflow{
		id:           id,
		commands:     make(chan Command, 100),
		deps:         deps,
		log:          log.WithField("workflow", id),
		record:       NewRecord(),
		step:         StepDetails,
		rosterGen:    make(map[Side]uint64),
		rosterCancel: make(map[Side]context.CancelFunc),
		rosterCache:  make(map[int][]RosterPlayer),
	}
}

// ID returns the session identifier.
func (w *Workflow) ID() string { return w.id }

// Send submits a command to the workflow.
func (w *Workflow) Send(cmd Command) {
	w.commands <- cmd
}

// Subscribe creates an event channel receiving all events.
// Safe to call while the loop is running.
func (w *Workflow) Subscribe() <-chan Event {
	ch := make(chan Event, 100)
	w.subsMu.Lock()
	w.subs = append(w.subs, ch)
	w.subsMu.Unlock()
	return ch
}

// Unsubscribe detaches a channel previously returned by Subscribe.
func (w *Workflow) Unsubscribe(ch <-chan Event) {
	w.subsMu.Lock()
	defer w.subsMu.Unlock()
	for i, sub := range w.subs {
		if sub == ch {
			w.subs = append(w.subs[:i], w.subs[i+1:]...)
			return
		}
	}
}

// Run starts the loop and blocks until ctx is cancelled. Cancelling aborts
// any outstanding roster or catalog fetch.
func (w *Workflow) Run(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)
	defer w.cancel()

	w.log.Info("workflow started")
	w.fetchHeroes()

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("workflow shutting down")
			return
		case cmd := <-w.commands:
			w.handleCommand(cmd)
		}
	}
}

func (w *Workflow) emit(e Event) {
	w.subsMu.Lock()
	defer w.subsMu.Unlock()
	for _, ch := range w.subs {
		select {
		case ch <- e:
		default:
			w.log.Warn("subscriber event channel full, dropping event")
		}
	}
}

func (w *Workflow) handleCommand(cmd Command) {
	switch cmd := cmd.(type) {
	case SetScheduling:
		respond(cmd.Response, w.handleSetScheduling(cmd))
	case SetMode:
		respond(cmd.Response, w.handleSetMode(cmd))
	case SetTrackDraft:
		respond(cmd.Response, w.handleSetTrackDraft(cmd))
	case SetTeam:
		respond(cmd.Response, w.handleSetTeam(cmd))
	case SetOurSide:
		respond(cmd.Response, w.handleSetOurSide(cmd))
	case SetOwnResult:
		respond(cmd.Response, w.handleSetOwnResult(cmd))
	case SetExternalWinner:
		respond(cmd.Response, w.handleSetExternalWinner(cmd))
	case SetDraftFormat:
		respond(cmd.Response, w.handleSetDraftFormat(cmd))
	case SetDraftHero:
		respond(cmd.Response, w.handleSetDraftHero(cmd))
	case SetSlotPlayer:
		respond(cmd.Response, w.handleSetSlotPlayer(cmd))
	case SetSlotStats:
		respond(cmd.Response, w.handleSetSlotStats(cmd))
	case SetAwards:
		respond(cmd.Response, w.handleSetAwards(cmd))
	case AddAttachment:
		respond(cmd.Response, w.handleAddAttachment(cmd))
	case RemoveAttachment:
		respond(cmd.Response, w.handleRemoveAttachment(cmd))
	case Advance:
		respond(cmd.Response, w.handleAdvance())
	case Back:
		respond(cmd.Response, w.handleBack())
	case JumpTo:
		respond(cmd.Response, w.handleJumpTo(cmd))
	case Submit:
		respond(cmd.Response, w.handleSubmit())
	case GetSnapshot:
		cmd.Reply <- w.snapshot()
	case GetAvailableHeroes:
		cmd.Reply <- AvailableHeroes(w.heroes, w.record.Draft, cmd.Kind, cmd.Side, cmd.Index)
	case rosterFetched:
		w.handleRosterFetched(cmd)
	case heroesFetched:
		w.handleHeroesFetched(cmd)
	case submissionFinished:
		w.handleSubmissionFinished(cmd)
	}
}

func respond(ch chan error, err error) {
	if ch != nil {
		ch <- err
	}
}

// editable rejects mutation once the record is in the hands of the
// orchestrator or already persisted.
func (w *Workflow) editable() error {
	if w.submitting || w.step == StepSubmitted {
		return ErrRecordLocked
	}
	return nil
}

func (w *Workflow) touched() {
	w.version++
	w.emit(RecordUpdated{Version: w.version})
}

func (w *Workflow) snapshot() Snapshot {
	return Snapshot{
		WorkflowID: w.id,
		Step:       w.step,
		StepName:   w.step.String(),
		Version:    w.version,
		Submitting: w.submitting,
		Record:     w.record.Clone(),
		Result:     w.result,
	}
}

func (w *Workflow) handleSetScheduling(cmd SetScheduling) error {
	if err := w.editable(); err != nil {
		return err
	}
	if cmd.ScrimType != "" && !cmd.ScrimType.valid() {
		return errors.New("unknown scrim category")
	}
	w.record.Scheduling = Scheduling{
		Date:      cmd.Date,
		Duration:  cmd.Duration,
		ScrimType: cmd.ScrimType,
		Notes:     cmd.Notes,
	}
	w.touched()
	return nil
}

func (w *Workflow) handleSetMode(cmd SetMode) error {
	if err := w.editable(); err != nil {
		return err
	}
	if cmd.Mode != ModeOwn && cmd.Mode != ModeExternal {
		return ErrBadMode
	}
	if w.record.Mode == cmd.Mode {
		return nil
	}
	w.record.Mode = cmd.Mode
	w.record.Outcome = OutcomeSelection{}
	w.resyncAll()
	w.touched()
	return nil
}

func (w *Workflow) handleSetTrackDraft(cmd SetTrackDraft) error {
	if err := w.editable(); err != nil {
		return err
	}
	if w.step != StepDetails {
		return ErrWrongStep
	}
	if !cmd.Enabled {
		w.record.TrackDraft = false
		w.record.Draft = nil
		w.touched()
		return nil
	}
	if w.record.TrackDraft {
		// Already tracking: keep the board. Format changes go through
		// SetDraftFormat so committed bans and picks survive.
		return nil
	}
	format := cmd.Format
	if format == 0 {
		format = 3
	}
	draft, err := NewDraftState(format)
	if err != nil {
		return err
	}
	w.record.TrackDraft = true
	w.record.Draft = draft
	w.touched()
	return nil
}

func (w *Workflow) handleSetTeam(cmd SetTeam) error {
	if err := w.editable(); err != nil {
		return err
	}
	if cmd.TeamID != 0 && cmd.NewTeam != nil {
		return errors.New("team slot takes an id or a new-team draft, not both")
	}
	if cmd.NewTeam != nil && !cmd.NewTeam.Complete() {
		return errors.New("new team needs a name, an abbreviation of at most 10 characters, and a category")
	}
	slot := TeamSlot{TeamID: cmd.TeamID, NewTeam: cmd.NewTeam}
	switch cmd.Key {
	case TeamKeyBlue:
		w.record.Teams.Blue = slot
	case TeamKeyRed:
		w.record.Teams.Red = slot
	case TeamKeyOurs:
		w.record.Teams.Ours = slot
	case TeamKeyOpponent:
		w.record.Teams.Opponent = slot
	default:
		return ErrBadTeamSlot
	}
	w.resyncAll()
	w.touched()
	return nil
}

func (w *Workflow) handleSetOurSide(cmd SetOurSide) error {
	if err := w.editable(); err != nil {
		return err
	}
	if !cmd.Side.valid() {
		return ErrBadSide
	}
	if w.record.Mode != ModeOwn {
		return ErrWrongStep
	}
	if w.record.Teams.OurSide == cmd.Side {
		return nil
	}
	w.record.Teams.OurSide = cmd.Side
	w.resyncAll()
	w.touched()
	return nil
}

func (w *Workflow) handleSetOwnResult(cmd SetOwnResult) error {
	if err := w.editable(); err != nil {
		return err
	}
	if w.record.Mode != ModeOwn {
		return ErrWrongStep
	}
	if cmd.Result != OutcomeVictory && cmd.Result != OutcomeDefeat {
		return errors.New("unknown outcome")
	}
	w.record.Outcome.OurResult = cmd.Result
	w.touched()
	return nil
}

func (w *Workflow) handleSetExternalWinner(cmd SetExternalWinner) error {
	if err := w.editable(); err != nil {
		return err
	}
	if w.record.Mode != ModeExternal {
		return ErrWrongStep
	}
	if cmd.Side != "" {
		if !cmd.Side.valid() {
			return ErrBadSide
		}
		if w.record.TeamFor(cmd.Side).Empty() {
			return ErrNotAMatchTeam
		}
		w.record.Outcome.WinnerSide = cmd.Side
		w.touched()
		return nil
	}
	switch {
	case w.record.Teams.Blue.Resolved() && cmd.TeamID == w.record.Teams.Blue.TeamID:
		w.record.Outcome.WinnerSide = SideBlue
	case w.record.Teams.Red.Resolved() && cmd.TeamID == w.record.Teams.Red.TeamID:
		w.record.Outcome.WinnerSide = SideRed
	default:
		return ErrNotAMatchTeam
	}
	w.touched()
	return nil
}

func (w *Workflow) handleSetDraftFormat(cmd SetDraftFormat) error {
	if err := w.editable(); err != nil {
		return err
	}
	if w.record.Draft == nil {
		return ErrDraftNotTracked
	}
	if err := w.record.Draft.SetFormat(cmd.Format); err != nil {
		return err
	}
	w.touched()
	return nil
}

func (w *Workflow) handleSetDraftHero(cmd SetDraftHero) error {
	if err := w.editable(); err != nil {
		return err
	}
	if w.record.Draft == nil {
		return ErrDraftNotTracked
	}
	var err error
	switch cmd.Kind {
	case SlotKindPick:
		err = w.record.Draft.SetPick(cmd.Side, cmd.Index, cmd.HeroID)
	case SlotKindBan:
		err = w.record.Draft.SetBan(cmd.Side, cmd.Index, cmd.HeroID)
	default:
		err = errors.New("unknown slot kind")
	}
	if err != nil {
		return err
	}
	w.touched()
	return nil
}

func (w *Workflow) handleSetSlotPlayer(cmd SetSlotPlayer) error {
	if err := w.editable(); err != nil {
		return err
	}
	slot := w.record.Slot(cmd.Ref)
	if slot == nil {
		return ErrBadSlot
	}
	slot.Player = cmd.Player
	slot.Role = cmd.Role
	w.touched()
	return nil
}

func (w *Workflow) handleSetSlotStats(cmd SetSlotStats) error {
	if err := w.editable(); err != nil {
		return err
	}
	slot := w.record.Slot(cmd.Ref)
	if slot == nil {
		return ErrBadSlot
	}
	if cmd.Stats.PickOrder < 0 || cmd.Stats.PickOrder > RosterSize {
		return errors.New("pick order must be between 1 and 5")
	}
	if cmd.Stats.Kills < 0 || cmd.Stats.Deaths < 0 || cmd.Stats.Assists < 0 {
		return errors.New("kills, deaths and assists cannot be negative")
	}
	slot.Stats = cmd.Stats
	w.touched()
	return nil
}

func (w *Workflow) handleSetAwards(cmd SetAwards) error {
	if err := w.editable(); err != nil {
		return err
	}
	if cmd.MVP != nil && w.record.Slot(*cmd.MVP) == nil {
		return ErrBadAwardRef
	}
	if cmd.MVPLoss != nil && w.record.Slot(*cmd.MVPLoss) == nil {
		return ErrBadAwardRef
	}
	if cmd.MVP != nil && cmd.MVPLoss != nil && *cmd.MVP == *cmd.MVPLoss {
		return errors.New("MVP and MVP of the losing side must be different players")
	}
	w.record.MVP = cmd.MVP
	w.record.MVPLoss = cmd.MVPLoss
	w.touched()
	return nil
}

func (w *Workflow) handleAddAttachment(cmd AddAttachment) error {
	if err := w.editable(); err != nil {
		return err
	}
	if cmd.Attachment.ID == "" {
		return errors.New("attachment id is required")
	}
	for _, a := range w.record.Attachments {
		if a.ID == cmd.Attachment.ID {
			return errors.New("attachment already added")
		}
	}
	w.record.Attachments = append(w.record.Attachments, cmd.Attachment)
	w.touched()
	return nil
}

func (w *Workflow) handleRemoveAttachment(cmd RemoveAttachment) error {
	if err := w.editable(); err != nil {
		return err
	}
	for i, a := range w.record.Attachments {
		if a.ID == cmd.ID {
			w.record.Attachments = append(w.record.Attachments[:i], w.record.Attachments[i+1:]...)
			w.touched()
			return nil
		}
	}
	return errors.New("attachment not found")
}

func (w *Workflow) handleAdvance() error {
	if err := w.editable(); err != nil {
		return err
	}
	next, ok := nextStep(w.record, w.step)
	if !ok {
		return ErrWrongStep
	}
	if blocked := validateLeave(w.record, w.step); blocked != nil {
		return blocked
	}
	w.setStep(next)
	return nil
}

func (w *Workflow) handleBack() error {
	if w.submitting {
		return ErrRecordLocked
	}
	prev, ok := prevStep(w.record, w.step)
	if !ok {
		return ErrWrongStep
	}
	w.setStep(prev)
	return nil
}

func (w *Workflow) handleJumpTo(cmd JumpTo) error {
	if w.submitting || w.step == StepSubmitted {
		return ErrRecordLocked
	}
	if w.step != StepReview && w.step != StepFailed {
		return ErrWrongStep
	}
	if cmd.Step < StepDetails || cmd.Step > StepReview {
		return ErrBadStep
	}
	if cmd.Step == StepDraft && !w.record.TrackDraft {
		return ErrBadStep
	}
	w.setStep(cmd.Step)
	return nil
}

func (w *Workflow) setStep(to Step) {
	if w.step == to {
		return
	}
	from := w.step
	w.step = to
	w.log.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Debug("step changed")
	w.emit(StepChanged{From: from, To: to})
}

func (w *Workflow) handleSubmit() error {
	if w.submitting {
		return ErrRecordLocked
	}
	if w.step != StepReview && w.step != StepFailed {
		return ErrWrongStep
	}
	if blocked := validateForSubmit(w.record); blocked != nil {
		return blocked
	}
	w.submitting = true
	w.emit(SubmissionStarted{})

	snapshot := w.record.Clone()
	orch := NewSubmissionOrchestrator(w.deps.Teams, w.deps.Matches, w.log)
	go func() {
		result, err := orch.Submit(w.ctx, snapshot)
		w.post(submissionFinished{Result: result, Err: err})
	}()
	return nil
}

func (w *Workflow) handleSubmissionFinished(cmd submissionFinished) {
	w.submitting = false
	w.result = cmd.Result
	if cmd.Err != nil {
		// Fatal failure: record is preserved unchanged for retry.
		w.log.WithError(cmd.Err).Error("submission failed")
		w.setStep(StepFailed)
		w.emit(SubmissionFailed{Reason: cmd.Err.Error()})
		return
	}
	w.log.WithField("match", cmd.Result.MatchID).Info("submission complete")
	w.setStep(StepSubmitted)
	w.emit(SubmissionSucceeded{Result: cmd.Result})
}

// post delivers an internal command without deadlocking a goroutine that
// outlives the loop.
func (w *Workflow) post(cmd Command) {
	select {
	case w.commands <- cmd:
	case <-w.ctx.Done():
	}
}

// --- roster synchronization ---

// resyncAll re-derives both sides' slots after any team, side, or mode
// change.
func (w *Workflow) resyncAll() {
	w.resyncSide(SideBlue)
	w.resyncSide(SideRed)
}

func (w *Workflow) resyncSide(side Side) {
	// Every selection change invalidates whatever fetch was in flight for
	// this side: last-requested-team-wins.
	w.rosterGen[side]++
	if cancel := w.rosterCancel[side]; cancel != nil {
		cancel()
		delete(w.rosterCancel, side)
	}

	slot := w.record.TeamFor(side)
	if !slot.Resolved() {
		// No team, or a pending new team with no persisted roster: clear
		// identity fields only, keep entered stats.
		SyncSlots(w.record.Slots(side), nil, false)
		delete(w.record.RosterWarnings, side)
		return
	}

	if cached, ok := w.rosterCache[slot.TeamID]; ok {
		SyncSlots(w.record.Slots(side), cached, true)
		delete(w.record.RosterWarnings, side)
		w.emit(RosterSynced{Side: side, TeamID: slot.TeamID})
		return
	}

	gen := w.rosterGen[side]
	teamID := slot.TeamID
	ctx, cancel := context.WithCancel(w.ctx)
	w.rosterCancel[side] = cancel

	go func() {
		players, err := w.deps.Rosters.TeamRoster(ctx, teamID)
		w.post(rosterFetched{Side: side, TeamID: teamID, Gen: gen, Players: players, Err: err})
	}()
}

func (w *Workflow) handleRosterFetched(cmd rosterFetched) {
	if cmd.Gen != w.rosterGen[cmd.Side] {
		// Superseded by a newer selection before it resolved.
		w.log.WithFields(logrus.Fields{"side": cmd.Side, "team": cmd.TeamID}).
			Debug("dropping stale roster fetch")
		return
	}
	delete(w.rosterCancel, cmd.Side)

	if cmd.Err != nil {
		// Leave slots as last-known-good; the operator can enter players
		// by hand.
		w.log.WithError(cmd.Err).WithField("team", cmd.TeamID).Warn("roster fetch failed")
		w.record.RosterWarnings[cmd.Side] = "roster could not be loaded: " + cmd.Err.Error()
		w.emit(RosterWarning{Side: cmd.Side, Message: w.record.RosterWarnings[cmd.Side]})
		w.touched()
		return
	}

	w.rosterCache[cmd.TeamID] = cmd.Players
	delete(w.record.RosterWarnings, cmd.Side)
	SyncSlots(w.record.Slots(cmd.Side), cmd.Players, true)
	w.emit(RosterSynced{Side: cmd.Side, TeamID: cmd.TeamID})
	w.touched()
}

// --- hero catalog ---

func (w *Workflow) fetchHeroes() {
	go func() {
		heroes, err := w.deps.Heroes.Heroes(w.ctx)
		w.post(heroesFetched{Heroes: heroes, Err: err})
	}()
}

func (w *Workflow) handleHeroesFetched(cmd heroesFetched) {
	if cmd.Err != nil {
		w.log.WithError(cmd.Err).Warn("hero catalog fetch failed")
		w.record.CatalogWarning = "hero catalog could not be loaded: " + cmd.Err.Error()
		w.touched()
		return
	}
	w.heroes = cmd.Heroes
	w.heroesLoaded = true
	w.record.CatalogWarning = ""
	w.touched()
}
