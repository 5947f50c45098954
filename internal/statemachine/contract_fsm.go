package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/makkaan/avenue-api/internal/models"
)

// ContractFSM wraps a contract with its state machine
type ContractFSM struct {
	contract *models.Contract
	fsm      *fsm.FSM
}

// NewContractFSM creates a new contract state machine
func NewContractFSM(contract *models.Contract) *ContractFSM {
	cfsm := &ContractFSM{
		contract: contract,
	}

	cfsm.fsm = fsm.NewFSM(
		contract.Status,
		fsm.Events{
			// inactive → active
			{Name: "activate", Src: []string{models.ContractStatusInactive}, Dst: models.ContractStatusActive},

			// active → inactive
			{Name: "deactivate", Src: []string{models.ContractStatusActive}, Dst: models.ContractStatusInactive},

			// active → closed (receivable reached zero)
			{Name: "close", Src: []string{models.ContractStatusActive}, Dst: models.ContractStatusClosed},

			// closed → active (reopen)
			{Name: "reopen", Src: []string{models.ContractStatusClosed}, Dst: models.ContractStatusActive},
		},
		fsm.Callbacks{},
	)

	return cfsm
}

// Activate transitions the contract to active
func (c *ContractFSM) Activate(ctx context.Context) error {
	if !c.contract.MayActivate() {
		return fmt.Errorf("contract cannot be activated in current state: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "activate"); err != nil {
		return fmt.Errorf("failed to activate contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Deactivate transitions the contract to inactive
func (c *ContractFSM) Deactivate(ctx context.Context) error {
	if !c.contract.MayDeactivate() {
		return fmt.Errorf("contract cannot be deactivated in current state: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "deactivate"); err != nil {
		return fmt.Errorf("failed to deactivate contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Close transitions the contract to closed
func (c *ContractFSM) Close(ctx context.Context) error {
	if !c.contract.MayClose() {
		return fmt.Errorf("contract cannot be closed in current state: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "close"); err != nil {
		return fmt.Errorf("failed to close contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Reopen transitions the contract from closed back to active
func (c *ContractFSM) Reopen(ctx context.Context) error {
	if !c.contract.MayReopen() {
		return fmt.Errorf("contract cannot be reopened in current state: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "reopen"); err != nil {
		return fmt.Errorf("failed to reopen contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Current returns the current state
func (c *ContractFSM) Current() string {
	return c.fsm.Current()
}

// Can checks if a transition is possible
func (c *ContractFSM) Can(event string) bool {
	return c.fsm.Can(event)
}
