package scheduler

import "github.com/wayfarer-ai/planner/internal/models"

// accountBudget implements Phase 4: total_cost = tickets + local
// transport + food, plus minimum_feasible_budget, per §4.5 Phase 4.
func accountBudget(itinerary *models.Itinerary, opts Options, mode string) (models.BudgetBreakdown, float64) {
	var tickets, transport float64
	var requiredTickets float64
	var minimalTransportMinutes int

	for i := range itinerary.Days {
		day := &itinerary.Days[i]
		dayTickets := 0.0
		for _, item := range day.Items {
			p, ok := opts.Arena.Get(item.POIRef)
			if !ok {
				continue
			}
			dayTickets += p.TicketPrice
			if p.Pinned {
				requiredTickets += p.TicketPrice
			}
		}
		dayTransport := float64(day.TotalTravelMinutes) * modeCostPerMin(mode)
		day.EstimatedCost = dayTickets + dayTransport
		tickets += dayTickets
		transport += dayTransport
		minimalTransportMinutes += day.TotalTravelMinutes
	}

	travelers := 1
	if opts.Profile != nil {
		travelers = opts.Profile.TravelersCount()
	}
	foodMin := float64(opts.Constraints.Days) * float64(travelers) * opts.foodMinPerPersonPerDay()

	breakdown := models.BudgetBreakdown{
		Tickets:        tickets,
		LocalTransport: transport,
		FoodMin:        foodMin,
	}

	minimalTransportCost := float64(minimalTransportMinutes) * modeCostPerMin("walking")
	minFeasible := requiredTickets + foodMin + minimalTransportCost

	return breakdown, minFeasible
}

// foodMinPerPersonPerDay resolves to a sane default when Options did
// not carry one through from config.
func (o Options) foodMinPerPersonPerDay() float64 {
	if o.FoodMinPerPersonPerDay > 0 {
		return o.FoodMinPerPersonPerDay
	}
	return 15.0
}
