package main

import (
	"crypto/ed25519"
	"strconv"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/craffles/pkg/pointer"
	"github.com/code-payments/craffles/pkg/raffle"
	"github.com/code-payments/craffles/pkg/raffle/data/receipt"
	"github.com/code-payments/craffles/pkg/solana"
	"github.com/code-payments/craffles/pkg/solana/token"
)

const lamportsPerSol = 1_000_000_000

func newAirdropCommand(a *app) *cobra.Command {
	var sol float64

	cmd := &cobra.Command{
		Use:   "airdrop [address]",
		Short: "Request devnet lamports for an address, or the paying wallet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := a.targetAddress(args)
			if err != nil {
				return err
			}

			lamports := uint64(sol * lamportsPerSol)
			sig, err := a.sc.RequestAirdrop(target, lamports, solana.CommitmentConfirmed)
			if err != nil {
				return errors.Wrap(err, "error requesting airdrop")
			}

			balance, err := a.sc.GetBalance(target)
			if err != nil {
				return errors.Wrap(err, "error getting balance")
			}

			return a.print(cmd, map[string]string{
				"address":   base58.Encode(target),
				"signature": sig.String(),
				"lamports":  strconv.FormatUint(lamports, 10),
				"balance":   strconv.FormatUint(balance, 10),
			})
		},
	}
	cmd.Flags().Float64Var(&sol, "sol", 1, "Amount of SOL to request")
	return cmd
}

func newCreateTreeCommand(a *app) *cobra.Command {
	var treeKeypair string
	var depth, bufferSize, canopy uint32
	var public bool

	cmd := &cobra.Command{
		Use:   "create-tree",
		Short: "Allocate and initialize a merkle tree for tickets with bubblegum",
		RunE: func(cmd *cobra.Command, args []string) error {
			payer, err := loadKeypair(a.v.GetString(keypairFlag))
			if err != nil {
				return err
			}
			tree, err := loadKeypair(treeKeypair)
			if err != nil {
				return err
			}

			req := &raffle.CreateTreeRequest{
				Payer:      payer,
				Tree:       tree,
				Descriptor: descriptorFromFlags(cmd, depth, bufferSize, canopy),
			}
			if cmd.Flags().Changed("public") {
				req.Public = pointer.Bool(public)
			}

			result, err := a.orchestrator().CreateTree(cmd.Context(), req)
			if err != nil {
				return err
			}

			fields := addressFields(result.Addresses)
			fields["invocation"] = result.InvocationId.String()
			fields["descriptor"] = result.Descriptor.String()
			addConfirmationFields(fields, result.Confirmation)
			return a.print(cmd, fields)
		},
	}
	cmd.Flags().StringVar(&treeKeypair, "tree", "", "Keypair file of the new tree account")
	cmd.Flags().Uint32Var(&depth, "max-depth", 0, "Tree max depth")
	cmd.Flags().Uint32Var(&bufferSize, "max-buffer-size", 0, "Tree max buffer size")
	cmd.Flags().Uint32Var(&canopy, "canopy-depth", 0, "Tree canopy depth")
	cmd.Flags().BoolVar(&public, "public", false, "Allow anyone to mint into the tree")
	_ = cmd.MarkFlagRequired("tree")
	return cmd
}

func newCreateRaffleCommand(a *app) *cobra.Command {
	var treeKeypair, mint, end string
	var duration time.Duration
	var price uint64
	var depth, bufferSize, canopy uint32

	cmd := &cobra.Command{
		Use:   "create-raffle",
		Short: "Create a raffle bound to a new tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			creator, err := loadKeypair(a.v.GetString(keypairFlag))
			if err != nil {
				return err
			}
			tree, err := loadKeypair(treeKeypair)
			if err != nil {
				return err
			}

			proceedsMint := token.NativeMint
			if len(mint) > 0 {
				if proceedsMint, err = parsePublicKey(mint); err != nil {
					return err
				}
			}

			endTime := time.Now().Add(duration)
			if len(end) > 0 {
				if endTime, err = time.Parse(time.RFC3339, end); err != nil {
					return errors.Wrap(err, "invalid --end, expected RFC3339")
				}
			}

			result, err := a.orchestrator().CreateRaffle(cmd.Context(), &raffle.CreateRaffleRequest{
				Creator:      creator,
				Tree:         tree,
				ProceedsMint: proceedsMint,
				EndTime:      endTime,
				TicketPrice:  price,
				Descriptor:   descriptorFromFlags(cmd, depth, bufferSize, canopy),
			})
			if err != nil {
				return err
			}

			fields := addressFields(result.Addresses)
			fields["invocation"] = result.InvocationId.String()
			fields["descriptor"] = result.Descriptor.String()
			fields["tree_preallocated"] = strconv.FormatBool(result.TreeAccountExists)
			fields["end"] = endTime.UTC().Format(time.RFC3339)
			addConfirmationFields(fields, result.Confirmation)
			return a.print(cmd, fields)
		},
	}
	cmd.Flags().StringVar(&treeKeypair, "tree", "", "Keypair file of the tree account")
	cmd.Flags().StringVar(&mint, "proceeds-mint", "", "Mint tickets are paid in, native SOL when empty")
	cmd.Flags().Uint64Var(&price, "ticket-price", 0, "Ticket price in the proceeds mint's base units")
	cmd.Flags().DurationVar(&duration, "duration", 24*time.Hour, "Time until the raffle ends")
	cmd.Flags().StringVar(&end, "end", "", "Absolute end time (RFC3339), overrides --duration")
	cmd.Flags().Uint32Var(&depth, "max-depth", 0, "Tree max depth")
	cmd.Flags().Uint32Var(&bufferSize, "max-buffer-size", 0, "Tree max buffer size")
	cmd.Flags().Uint32Var(&canopy, "canopy-depth", 0, "Tree canopy depth")
	_ = cmd.MarkFlagRequired("tree")
	_ = cmd.MarkFlagRequired("ticket-price")
	return cmd
}

func newBuyTicketsCommand(a *app) *cobra.Command {
	var count uint32

	cmd := &cobra.Command{
		Use:   "buy-tickets <tree>",
		Short: "Buy tickets from the raffle bound to a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buyer, err := loadKeypair(a.v.GetString(keypairFlag))
			if err != nil {
				return err
			}
			tree, err := parsePublicKey(args[0])
			if err != nil {
				return err
			}

			result, err := a.orchestrator().BuyTickets(cmd.Context(), &raffle.BuyTicketsRequest{
				Buyer:       buyer,
				Tree:        tree,
				TicketCount: count,
			})
			if err != nil {
				return err
			}

			fields := addressFields(result.Addresses)
			fields["invocation"] = result.InvocationId.String()
			fields["proceeds_mint"] = base58.Encode(result.ProceedsMint)
			fields["buyer_token_account"] = base58.Encode(result.BuyerTokenAccount)
			fields["wrapped_lamports"] = strconv.FormatUint(result.WrappedLamports, 10)
			fields["instructions"] = strconv.Itoa(result.Instructions)
			addConfirmationFields(fields, result.Confirmation)
			return a.print(cmd, fields)
		},
	}
	cmd.Flags().Uint32VarP(&count, "count", "n", 1, "Number of tickets")
	return cmd
}

func newShowRaffleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show-raffle <tree>",
		Short: "Show the raffle bound to a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := parsePublicKey(args[0])
			if err != nil {
				return err
			}

			status, err := a.orchestrator().GetRaffleStatus(cmd.Context(), tree)
			if err != nil {
				return err
			}

			fields := addressFields(status.Addresses)
			fields["creator"] = base58.Encode(status.Raffle.Creator)
			fields["end"] = time.Unix(status.Raffle.EndTimestamp, 0).UTC().Format(time.RFC3339)
			fields["ended"] = strconv.FormatBool(status.Ended)
			fields["ticket_price"] = strconv.FormatUint(status.Raffle.TicketPrice, 10)
			fields["proceeds_mint"] = base58.Encode(status.ProceedsMint)
			fields["proceeds_balance"] = strconv.FormatUint(status.ProceedsBalance, 10)
			fields["tickets_sold"] = strconv.FormatUint(status.TicketsSold, 10)
			fields["capacity"] = strconv.FormatUint(status.Capacity, 10)
			return a.print(cmd, fields)
		},
	}
}

func newListRafflesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list-raffles [creator]",
		Short: "List raffles created by an address, or the paying wallet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creator, err := a.targetAddress(args)
			if err != nil {
				return err
			}

			listings, err := a.orchestrator().ListRaffles(cmd.Context(), creator)
			if err != nil {
				return err
			}

			entries := make([]map[string]string, len(listings))
			for i, listing := range listings {
				entries[i] = map[string]string{
					"raffle":       base58.Encode(listing.Address),
					"tree":         base58.Encode(listing.Raffle.MerkleTree),
					"end":          time.Unix(listing.Raffle.EndTimestamp, 0).UTC().Format(time.RFC3339),
					"ticket_price": strconv.FormatUint(listing.Raffle.TicketPrice, 10),
				}
			}
			return a.printList(cmd, entries)
		},
	}
}

func newReceiptsCommand(a *app) *cobra.Command {
	var tree string
	var limit uint64

	cmd := &cobra.Command{
		Use:   "receipts [payer]",
		Short: "Show journaled invocations by payer, or by tree with --tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.db == nil {
				return errors.Errorf("receipts are only kept across runs with --%s", databaseDSNFlag)
			}

			var records []*receipt.Record
			var err error
			if len(tree) > 0 {
				if _, err := parsePublicKey(tree); err != nil {
					return err
				}
				records, err = a.receipts.GetAllByTree(cmd.Context(), tree, limit)
			} else {
				var payer ed25519.PublicKey
				if payer, err = a.targetAddress(args); err != nil {
					return err
				}
				records, err = a.receipts.GetAllByPayer(cmd.Context(), base58.Encode(payer), limit)
			}
			if err == receipt.ErrReceiptNotFound {
				return a.printList(cmd, nil)
			} else if err != nil {
				return err
			}

			entries := make([]map[string]string, len(records))
			for i, record := range records {
				entries[i] = receiptFields(record)
			}
			return a.printList(cmd, entries)
		},
	}
	cmd.Flags().StringVar(&tree, "tree", "", "Filter by tree instead of payer")
	cmd.Flags().Uint64Var(&limit, "limit", 20, "Maximum number of receipts, 0 for all")
	return cmd
}

// targetAddress returns the address given as the only argument, or the
// paying wallet's public key
func (a *app) targetAddress(args []string) (ed25519.PublicKey, error) {
	if len(args) > 0 {
		return parsePublicKey(args[0])
	}

	key, err := loadKeypair(a.v.GetString(keypairFlag))
	if err != nil {
		return nil, err
	}
	return key.Public().(ed25519.PublicKey), nil
}

func descriptorFromFlags(cmd *cobra.Command, depth, bufferSize, canopy uint32) *raffle.TreeDescriptor {
	flags := cmd.Flags()
	if !flags.Changed("max-depth") && !flags.Changed("max-buffer-size") && !flags.Changed("canopy-depth") {
		return nil
	}
	return &raffle.TreeDescriptor{
		MaxDepth:      depth,
		MaxBufferSize: bufferSize,
		CanopyDepth:   canopy,
	}
}

func addressFields(addresses *raffle.RaffleAddresses) map[string]string {
	return map[string]string{
		"tree":           base58.Encode(addresses.Tree),
		"tree_authority": base58.Encode(addresses.TreeAuthority),
		"raffle":         base58.Encode(addresses.Raffle),
		"proceeds":       base58.Encode(addresses.Proceeds),
	}
}

func addConfirmationFields(fields map[string]string, confirmation *raffle.Confirmation) {
	fields["signature"] = confirmation.Signature.String()
	fields["slot"] = strconv.FormatUint(confirmation.Slot, 10)
}

func receiptFields(record *receipt.Record) map[string]string {
	fields := map[string]string{
		"invocation": record.InvocationId.String(),
		"workflow":   string(record.Workflow),
		"state":      record.State.String(),
		"payer":      record.Payer,
		"tree":       record.Tree,
		"created_at": record.CreatedAt.UTC().Format(time.RFC3339),
	}
	if len(record.Signature) > 0 {
		fields["signature"] = record.Signature
	}
	if len(record.Raffle) > 0 {
		fields["raffle"] = record.Raffle
	}
	if record.TicketCount > 0 {
		fields["ticket_count"] = strconv.FormatUint(uint64(record.TicketCount), 10)
		fields["amount"] = strconv.FormatUint(record.Amount, 10)
	}
	if len(record.Error) > 0 {
		fields["error"] = record.Error
	}
	return fields
}
