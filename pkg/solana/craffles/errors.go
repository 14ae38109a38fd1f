package craffles

import (
	"fmt"
)

// RaffleError is a custom error returned by the craffles program.
type RaffleError uint32

const (
	RaffleErrorMaxEntrantsTooLarge RaffleError = iota + 6000
	RaffleErrorRaffleEnded
	RaffleErrorInvalidCalculation
	RaffleErrorInvalidPrizeIndex
	RaffleErrorNoPrize
	RaffleErrorNotEnoughTicketsLeft
	RaffleErrorUnclaimedPrizes
	RaffleErrorRaffleStillRunning
	RaffleErrorWinnerNotDrawn
	RaffleErrorTokenAccountNotOwnedByWinner
	RaffleErrorTicketHasNotWon
	RaffleErrorWinnersAlreadyDrawn
	RaffleErrorInvalidAccountData
)

var raffleErrors = map[RaffleError]struct {
	name    string
	message string
}{
	RaffleErrorMaxEntrantsTooLarge:          {"MaxEntrantsTooLarge", "Max entrants is too large"},
	RaffleErrorRaffleEnded:                  {"RaffleEnded", "Raffle has ended"},
	RaffleErrorInvalidCalculation:           {"InvalidCalculation", "Invalid calculation"},
	RaffleErrorInvalidPrizeIndex:            {"InvalidPrizeIndex", "Invalid prize index"},
	RaffleErrorNoPrize:                      {"NoPrize", "No prize"},
	RaffleErrorNotEnoughTicketsLeft:         {"NotEnoughTicketsLeft", "Not enough tickets left"},
	RaffleErrorUnclaimedPrizes:              {"UnclaimedPrizes", "Unclaimed prizes"},
	RaffleErrorRaffleStillRunning:           {"RaffleStillRunning", "Raffle is still running"},
	RaffleErrorWinnerNotDrawn:               {"WinnerNotDrawn", "Winner not drawn"},
	RaffleErrorTokenAccountNotOwnedByWinner: {"TokenAccountNotOwnedByWinner", "Ticket account not owned by winner"},
	RaffleErrorTicketHasNotWon:              {"TicketHasNotWon", "Ticket has not won"},
	RaffleErrorWinnersAlreadyDrawn:          {"WinnersAlreadyDrawn", "Winner already drawn"},
	RaffleErrorInvalidAccountData:           {"InvalidAccountData", "An account's data contents was invalid"},
}

// GetRaffleError maps a custom program error code to a RaffleError.
func GetRaffleError(code uint32) (RaffleError, bool) {
	e := RaffleError(code)
	_, ok := raffleErrors[e]
	return e, ok
}

func (e RaffleError) Name() string {
	if v, ok := raffleErrors[e]; ok {
		return v.name
	}
	return "Unknown"
}

func (e RaffleError) Error() string {
	if v, ok := raffleErrors[e]; ok {
		return fmt.Sprintf("%s (%d): %s", v.name, uint32(e), v.message)
	}
	return fmt.Sprintf("unknown raffle error (%d)", uint32(e))
}
