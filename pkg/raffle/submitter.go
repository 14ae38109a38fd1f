package raffle

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/craffles/pkg/solana"
	compute_budget "github.com/code-payments/craffles/pkg/solana/computebudget"
)

// Confirmation is the outcome of a transaction that reached the configured
// commitment without error.
type Confirmation struct {
	Signature  solana.Signature
	Slot       uint64
	Status     *solana.SignatureStatus
	Simulation *solana.SimulationResult
}

// Submitter sends one transaction per call and waits for it to be confirmed.
// It never retries a failed transaction.
type Submitter struct {
	log  *logrus.Entry
	sc   solana.Client
	conf *conf
}

func NewSubmitter(sc solana.Client, configProvider ConfigProvider) *Submitter {
	return newSubmitter(sc, configProvider())
}

func newSubmitter(sc solana.Client, c *conf) *Submitter {
	return &Submitter{
		log:  logrus.StandardLogger().WithField("type", "raffle/submitter"),
		sc:   sc,
		conf: c,
	}
}

// Submit compiles instructions into a transaction paid for by feePayer,
// signs it with feePayer and signers, optionally simulates it, sends it and
// polls until it reaches the configured commitment. The context is honoured
// up until the transaction is sent. Afterwards only the wait is abandoned.
func (s *Submitter) Submit(ctx context.Context, instructions []solana.Instruction, feePayer ed25519.PrivateKey, signers ...ed25519.PrivateKey) (*Confirmation, error) {
	log := s.log.WithField("method", "Submit")

	if len(instructions) == 0 {
		return nil, &SubmissionError{Kind: SubmissionFailureValidation, Step: StepSign, Err: errors.New("no instructions")}
	}
	for i, key := range append([]ed25519.PrivateKey{feePayer}, signers...) {
		if len(key) != ed25519.PrivateKeySize {
			return nil, &SubmissionError{Kind: SubmissionFailureValidation, Step: StepSign, Err: errors.Wrapf(ErrInvalidSigner, "signer %d has length %d", i, len(key))}
		}
	}

	commitment, err := solana.CommitmentFromString(s.conf.commitment.Get(ctx))
	if err != nil {
		return nil, &SubmissionError{Kind: SubmissionFailureValidation, Step: StepConfirm, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, &SubmissionError{Kind: SubmissionFailureNetwork, Step: StepCheckContext, Err: err}
	}

	computeUnitLimit, err := getUint32(ctx, ComputeUnitLimitConfigEnvName, s.conf.computeUnitLimit)
	if err != nil {
		return nil, &AssemblyError{Step: StepAssemble, Err: err}
	}

	blockhash, err := s.sc.GetLatestBlockhash()
	if err != nil {
		return nil, &SubmissionError{Kind: SubmissionFailureNetwork, Step: StepGetBlockhash, Err: err}
	}

	instructions = compute_budget.Prepend(
		computeUnitLimit,
		s.conf.computeUnitPrice.Get(ctx),
		instructions...,
	)

	feePayerPub := feePayer.Public().(ed25519.PublicKey)
	txn := solana.NewTransaction(feePayerPub, instructions...)
	txn.SetBlockhash(blockhash)
	if err := txn.Sign(append([]ed25519.PrivateKey{feePayer}, signers...)...); err != nil {
		return nil, &SubmissionError{Kind: SubmissionFailureValidation, Step: StepSign, Err: err}
	}
	if missing := txn.MissingSigners(); len(missing) > 0 {
		return nil, &SubmissionError{Kind: SubmissionFailureValidation, Step: StepSign, Err: errors.Errorf("missing %d signature(s)", len(missing))}
	}
	if err := txn.Validate(); err != nil {
		return nil, &SubmissionError{Kind: SubmissionFailureValidation, Step: StepSign, Err: err}
	}

	sig := txn.Signature()
	log = log.WithField("signature", sig.String())

	var simulation *solana.SimulationResult
	if !s.conf.skipSimulation.Get(ctx) {
		simulation, err = s.sc.SimulateTransaction(txn, commitment)
		if err != nil {
			return nil, &SubmissionError{Kind: SubmissionFailureNetwork, Step: StepSimulate, Err: err}
		}

		if simulation.Err != nil {
			log.WithField("logs", simulation.Logs).Info("simulation failed")
			return nil, transactionFailure(StepSimulate, nil, simulation.Err, instructions)
		}

		log.WithField("units_consumed", simulation.UnitsConsumed).Debug("simulation succeeded")
	}

	// Last point at which the invocation can be abandoned without side effects
	if err := ctx.Err(); err != nil {
		return nil, &SubmissionError{Kind: SubmissionFailureNetwork, Step: StepCheckContext, Err: err}
	}

	if _, err := s.sc.SubmitTransaction(txn, commitment); err != nil {
		var txErr *solana.TransactionError
		if errors.As(err, &txErr) {
			return nil, transactionFailure(StepSend, &sig, txErr, instructions)
		}
		return nil, &SubmissionError{Kind: SubmissionFailureNetwork, Step: StepSend, Signature: &sig, Err: err}
	}

	log.Debug("transaction sent")

	status, err := solana.PollSignatureStatus(ctx, s.sc, sig, commitment, uint(s.conf.confirmationPollLimit.Get(ctx)))
	if err != nil {
		var txErr *solana.TransactionError
		if errors.As(err, &txErr) {
			return nil, transactionFailure(StepConfirm, &sig, txErr, instructions)
		}
		return nil, &SubmissionError{Kind: SubmissionFailureNetwork, Step: StepConfirm, Signature: &sig, Err: err}
	}

	log.WithField("slot", status.Slot).Debug("transaction confirmed")

	return &Confirmation{
		Signature:  sig,
		Slot:       status.Slot,
		Status:     status,
		Simulation: simulation,
	}, nil
}

// transactionFailure classifies an error the runtime reported for the
// transaction. An expired blockhash is a network failure, anything else is
// a validation failure.
func transactionFailure(step Step, sig *solana.Signature, txErr *solana.TransactionError, instructions []solana.Instruction) *SubmissionError {
	kind := SubmissionFailureValidation
	if txErr.ErrorKey() == solana.TransactionErrorBlockhashNotFound {
		kind = SubmissionFailureNetwork
	}

	return &SubmissionError{
		Kind:         kind,
		Step:         step,
		Signature:    sig,
		ProgramError: programErrorName(txErr, instructions),
		Err:          txErr,
	}
}
