package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/napolitain/stronghold/internal/models"
	"github.com/napolitain/stronghold/internal/stronghold"
)

// Script is a scripted playthrough: an opening treasury and a list of steps
// applied in order against a fresh session
type Script struct {
	Name     string        `yaml:"name"`
	Treasury models.Wallet `yaml:"treasury"`
	Seed     int64         `yaml:"seed"`
	Steps    []Step        `yaml:"steps"`
}

// Step holds exactly one action. Facilities are referred to by catalog id
// (any tier of the chain) and NPCs by name.
type Step struct {
	Build    string       `yaml:"build,omitempty"`
	Upgrade  string       `yaml:"upgrade,omitempty"`
	Demolish string       `yaml:"demolish,omitempty"`
	Hire     *HireStep    `yaml:"hire,omitempty"`
	Fire     string       `yaml:"fire,omitempty"`
	Move     *MoveStep    `yaml:"move,omitempty"`
	GrantXP  *XPStep      `yaml:"grant_xp,omitempty"`
	Start    *OrderStep   `yaml:"start,omitempty"`
	Inputs   *InputsStep  `yaml:"inputs,omitempty"`
	Resolve  *OrderStep   `yaml:"resolve,omitempty"`
	Adjust   []AdjustStep `yaml:"adjust,omitempty"`
	Advance  int          `yaml:"advance,omitempty"`
}

type HireStep struct {
	Name       string        `yaml:"name"`
	Profession string        `yaml:"profession"`
	Level      int           `yaml:"level"`
	Upkeep     models.Wallet `yaml:"upkeep"`
	Facility   string        `yaml:"facility"`
}

type MoveStep struct {
	NPC      string `yaml:"npc"`
	Facility string `yaml:"facility"` // empty moves to reserve
}

type XPStep struct {
	NPC    string `yaml:"npc"`
	Amount int    `yaml:"amount"`
}

type OrderStep struct {
	Facility string `yaml:"facility"`
	Order    string `yaml:"order"`
}

type InputsStep struct {
	Facility string            `yaml:"facility"`
	Order    string            `yaml:"order"`
	Values   map[string]string `yaml:"values"`
}

// AdjustStep is one manual effect; set exactly one of Currency, Item, Stat or Log
type AdjustStep struct {
	Currency models.Denomination `yaml:"currency,omitempty"`
	Item     string              `yaml:"item,omitempty"`
	Stat     string              `yaml:"stat,omitempty"`
	Log      string              `yaml:"log,omitempty"`
	Delta    int64               `yaml:"delta,omitempty"`
}

var errBadStep = errors.New("invalid script step")

// LoadScript reads a YAML script from path
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes a YAML script, rejecting unknown keys
func ParseScript(data []byte) (*Script, error) {
	var sc Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	if sc.Name == "" {
		sc.Name = "stronghold"
	}
	for i, st := range sc.Steps {
		if n := st.actions(); n != 1 {
			return nil, fmt.Errorf("%w: step %d has %d actions", errBadStep, i+1, n)
		}
	}
	return &sc, nil
}

func (st Step) actions() int {
	n := 0
	for _, set := range []bool{
		st.Build != "", st.Upgrade != "", st.Demolish != "", st.Hire != nil,
		st.Fire != "", st.Move != nil, st.GrantXP != nil, st.Start != nil,
		st.Inputs != nil, st.Resolve != nil, len(st.Adjust) > 0, st.Advance > 0,
	} {
		if set {
			n++
		}
	}
	return n
}

// StepResult is the outcome of one executed step
type StepResult struct {
	Index   int
	Action  string
	Detail  string
	Reports []*stronghold.TurnReport
	Err     error
}

// Runner applies script steps to a session
type Runner struct {
	engine  *stronghold.Engine
	session *models.Session
	npcs    map[string]string // name to npc id
}

// NewRunner opens the script's session on engine
func NewRunner(engine *stronghold.Engine, sc *Script) (*Runner, error) {
	s, err := engine.NewSession(sc.Name, sc.Treasury)
	if err != nil {
		return nil, err
	}
	return ResumeRunner(engine, s), nil
}

// ResumeRunner continues a saved session. NPCs already on the roster are
// addressable by name.
func ResumeRunner(engine *stronghold.Engine, s *models.Session) *Runner {
	r := &Runner{engine: engine, session: s, npcs: make(map[string]string)}
	for _, npc := range s.NPCList() {
		r.npcs[npc.Name] = npc.ID
	}
	return r
}

// Session returns the session the runner mutates
func (r *Runner) Session() *models.Session {
	return r.session
}

// Run executes every step. Rule errors are recorded on the step result and
// do not stop the run unless strict is set.
func (r *Runner) Run(steps []Step, strict bool) ([]StepResult, error) {
	results := make([]StepResult, 0, len(steps))
	for i, st := range steps {
		res := r.step(st)
		res.Index = i + 1
		results = append(results, res)
		if res.Err != nil && strict {
			return results, fmt.Errorf("step %d (%s): %w", res.Index, res.Action, res.Err)
		}
	}
	return results, nil
}

func (r *Runner) step(st Step) StepResult {
	e, s := r.engine, r.session
	switch {
	case st.Build != "":
		inst, err := e.QueueBuild(s, st.Build)
		if err != nil {
			return StepResult{Action: "build", Err: err}
		}
		return StepResult{Action: "build", Detail: fmt.Sprintf("%s queued as %s", st.Build, inst.ID)}

	case st.Upgrade != "":
		inst, err := r.facility(st.Upgrade)
		if err != nil {
			return StepResult{Action: "upgrade", Err: err}
		}
		target, err := e.QueueUpgrade(s, inst.ID)
		if err != nil {
			return StepResult{Action: "upgrade", Err: err}
		}
		return StepResult{Action: "upgrade", Detail: fmt.Sprintf("%s -> %s", inst.FacilityID, target.ID)}

	case st.Demolish != "":
		inst, err := r.facility(st.Demolish)
		if err == nil {
			err = e.Demolish(s, inst.ID)
		}
		return StepResult{Action: "demolish", Detail: st.Demolish, Err: err}

	case st.Hire != nil:
		return r.hire(st.Hire)

	case st.Fire != "":
		id, err := r.npc(st.Fire)
		if err == nil {
			err = e.Fire(s, id)
		}
		if err == nil {
			delete(r.npcs, st.Fire)
		}
		return StepResult{Action: "fire", Detail: st.Fire, Err: err}

	case st.Move != nil:
		return r.move(st.Move)

	case st.GrantXP != nil:
		id, err := r.npc(st.GrantXP.NPC)
		if err != nil {
			return StepResult{Action: "grant_xp", Err: err}
		}
		change, err := e.GrantXP(s, id, st.GrantXP.Amount)
		if err != nil {
			return StepResult{Action: "grant_xp", Err: err}
		}
		detail := fmt.Sprintf("%s now has %d xp", st.GrantXP.NPC, change.XP)
		if change.Leveled() {
			detail += fmt.Sprintf(", %s -> %s", change.From, change.To)
		}
		return StepResult{Action: "grant_xp", Detail: detail}

	case st.Start != nil:
		inst, err := r.facility(st.Start.Facility)
		if err != nil {
			return StepResult{Action: "start", Err: err}
		}
		oi, err := e.StartOrder(s, inst.ID, st.Start.Order)
		if err != nil {
			return StepResult{Action: "start", Err: err}
		}
		return StepResult{Action: "start", Detail: fmt.Sprintf("%s with %d staff", oi.OrderID, len(oi.Staff))}

	case st.Inputs != nil:
		inst, err := r.facility(st.Inputs.Facility)
		if err == nil {
			err = e.SubmitInputs(s, inst.ID, st.Inputs.Order, st.Inputs.Values)
		}
		return StepResult{Action: "inputs", Detail: st.Inputs.Order, Err: err}

	case st.Resolve != nil:
		inst, err := r.facility(st.Resolve.Facility)
		if err != nil {
			return StepResult{Action: "resolve", Err: err}
		}
		res, err := e.ResolveOrder(s, inst.ID, st.Resolve.Order)
		if err != nil {
			return StepResult{Action: "resolve", Err: err}
		}
		return StepResult{Action: "resolve", Detail: describeResolution(res)}

	case len(st.Adjust) > 0:
		effects, err := adjustEffects(st.Adjust)
		if err == nil {
			_, err = e.ApplyEffects(s, effects, stronghold.ApplyContext{Action: "script adjustment"})
		}
		return StepResult{Action: "adjust", Detail: fmt.Sprintf("%d effects", len(st.Adjust)), Err: err}

	case st.Advance > 0:
		var reports []*stronghold.TurnReport
		var failed error
		for i := 0; i < st.Advance; i++ {
			report := e.AdvanceTurn(s)
			reports = append(reports, report)
			if !report.OK() && failed == nil {
				failed = report.Failures[0]
			}
		}
		return StepResult{
			Action:  "advance",
			Detail:  fmt.Sprintf("%d turn(s), now turn %d", st.Advance, s.Turn),
			Reports: reports,
			Err:     failed,
		}
	}
	return StepResult{Action: "noop", Err: errBadStep}
}

func (r *Runner) hire(h *HireStep) StepResult {
	req := stronghold.HireRequest{
		Name:       h.Name,
		Profession: h.Profession,
		Level:      models.Level(h.Level),
		Upkeep:     h.Upkeep,
	}
	if req.Level == 0 {
		req.Level = models.Apprentice
	}
	if _, taken := r.npcs[h.Name]; taken {
		return StepResult{Action: "hire", Err: fmt.Errorf("%w: npc name %q already used", errBadStep, h.Name)}
	}
	where := "reserve"
	if h.Facility != "" {
		inst, err := r.facility(h.Facility)
		if err != nil {
			return StepResult{Action: "hire", Err: err}
		}
		req.FacilityID = inst.ID
		where = inst.FacilityID
	}
	npc, err := r.engine.Hire(r.session, req)
	if err != nil {
		return StepResult{Action: "hire", Err: err}
	}
	r.npcs[h.Name] = npc.ID
	return StepResult{Action: "hire", Detail: fmt.Sprintf("%s (%s) to %s", npc.Name, npc.Profession, where)}
}

func (r *Runner) move(m *MoveStep) StepResult {
	id, err := r.npc(m.NPC)
	if err != nil {
		return StepResult{Action: "move", Err: err}
	}
	to := ""
	if m.Facility != "" {
		inst, err := r.facility(m.Facility)
		if err != nil {
			return StepResult{Action: "move", Err: err}
		}
		to = inst.ID
	}
	res, err := r.engine.Move(r.session, id, to)
	if err != nil {
		return StepResult{Action: "move", Err: err}
	}
	detail := fmt.Sprintf("%s to %s", m.NPC, orReserve(m.Facility))
	if res.Compatibility == stronghold.CompatibilityWarn {
		detail += " (" + res.Warning + ")"
	}
	return StepResult{Action: "move", Detail: detail}
}

// facility finds the session instance whose definition shares a chain with id
func (r *Runner) facility(id string) (*models.FacilityInstance, error) {
	catalog := r.engine.Catalog()
	if catalog.Facility(id) == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownFacility, id)
	}
	root := catalog.Root(id)
	for _, inst := range r.session.FacilityList() {
		if catalog.Root(inst.FacilityID) == root {
			return inst, nil
		}
	}
	return nil, fmt.Errorf("%w: no %s in %s", models.ErrUnknownFacility, id, r.session.Name)
}

func (r *Runner) npc(name string) (string, error) {
	id, ok := r.npcs[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", models.ErrUnknownNpc, name)
	}
	return id, nil
}

func adjustEffects(steps []AdjustStep) ([]models.Effect, error) {
	effects := make([]models.Effect, 0, len(steps))
	for _, a := range steps {
		switch {
		case a.Currency != "":
			effects = append(effects, models.CurrencyEffect{Currency: a.Currency, Delta: a.Delta})
		case a.Item != "":
			effects = append(effects, models.ItemEffect{Item: a.Item, Delta: a.Delta})
		case a.Stat != "":
			effects = append(effects, models.StatEffect{Stat: a.Stat, Delta: a.Delta})
		case a.Log != "":
			effects = append(effects, models.LogEffect{Text: a.Log})
		default:
			return nil, fmt.Errorf("%w: adjustment needs a currency, item, stat or log", errBadStep)
		}
	}
	return effects, nil
}

func describeResolution(res *stronghold.Resolution) string {
	detail := fmt.Sprintf("%s rolled %d: %s", res.OrderID, res.Roll, res.Bucket)
	for _, c := range res.Changes {
		detail += ", " + c.String()
	}
	if res.Stopped != "" {
		detail += " (stopped: " + res.Stopped + ")"
	}
	return detail
}

func orReserve(facility string) string {
	if facility == "" {
		return "reserve"
	}
	return facility
}
