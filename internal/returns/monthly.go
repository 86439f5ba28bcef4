package returns

// groupRun is a contiguous run of deduplicated observations for one company
// and calendar year, with the aggregator input derived from it.
type groupRun struct {
	start, end int // half-open range into the observation slice
	group      CompanyYearGroup
}

// monthlyReturns partitions sorted, deduplicated observations into
// company-year runs and computes the period returns inside each run. The first
// observation of a run has no return, so nothing chains across a year boundary.
func monthlyReturns(obs []observation) []groupRun {
	var runs []groupRun
	for start := 0; start < len(obs); {
		company, year := obs[start].company, obs[start].date.Year()
		end := start + 1
		for end < len(obs) && obs[end].company == company && obs[end].date.Year() == year {
			end++
		}

		g := CompanyYearGroup{
			Company: company,
			Year:    year,
			Months:  make([]MonthKey, 0, end-start),
			Returns: make([]float64, 0, end-start-1),
		}
		for i := start; i < end; i++ {
			g.Months = append(g.Months, MonthKeyOf(obs[i].date))
			if i > start {
				if r, ok := periodReturn(obs[i-1].price, obs[i].price); ok {
					g.Returns = append(g.Returns, r)
				}
			}
		}

		runs = append(runs, groupRun{start: start, end: end, group: g})
		start = end
	}
	return runs
}

// periodReturn is the fractional change from prev to cur. It is undefined when
// the prior price is unusable.
func periodReturn(prev, cur float64) (float64, bool) {
	if prev <= 0 {
		return 0, false
	}
	return cur/prev - 1, true
}
