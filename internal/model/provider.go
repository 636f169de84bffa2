package model

// Provider is a service provider (a doctor) patients queue for.
// Providers come from static configuration and never change while
// the process runs.
type Provider struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Specialization    string `json:"specialization"`
	AvgServiceMinutes int    `json:"avg_service_minutes"`
}

// ProviderView is the read model exposed to clients.
type ProviderView struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Specialization    string `json:"specialization"`
	AvgServiceMinutes int    `json:"avg_service_minutes"`
}

func (p Provider) View() ProviderView {
	return ProviderView{
		ID:                p.ID,
		Name:              p.Name,
		Specialization:    p.Specialization,
		AvgServiceMinutes: p.AvgServiceMinutes,
	}
}
