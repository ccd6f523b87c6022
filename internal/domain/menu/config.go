package menu

// Default is the full navigation tree of the business app. Pure data:
// icons and other rendering concerns stay in the presentation layer.
// Order values are deliberately independent of declaration order.
func Default() []Node {
	return []Node{
		{
			ID:    "mnu-dashboard",
			Label: "Dashboard",
			Route: "/dashboard",
			Order: 1,
		},
		{
			ID:    "mnu-ledgers",
			Label: "Ledgers",
			Order: 2,
			Children: []Node{
				{ID: "mnu-ledgers-cash", Label: "Cash Book", Route: "/ledgers/cash-book", Order: 1},
				{ID: "mnu-ledgers-bank", Label: "Bank Book", Route: "/ledgers/bank-book", Order: 2},
				{ID: "mnu-ledgers-day", Label: "Day Book", Route: "/ledgers/day-book", Order: 3},
			},
		},
		{
			ID:    "mnu-debtors",
			Label: "Debtors",
			Order: 3,
			Children: []Node{
				{ID: "mnu-debtors-list", Label: "Debtor List", Route: "/debtors", Order: 1},
				{ID: "mnu-debtors-followup", Label: "Follow Ups", Route: "/debtors/follow-ups", Order: 2},
			},
		},
		{
			ID:    "mnu-field",
			Label: "Field Work",
			Order: 4,
			Children: []Node{
				{ID: "mnu-field-punchin", Label: "Punch In", Route: "/field/punch-in", Order: 1},
				{ID: "mnu-field-visits", Label: "Visit History", Route: "/field/visits", Order: 2},
				{ID: "mnu-field-shoploc", Label: "Set Shop Location", Route: "/field/shop-location", Order: 3},
			},
		},
		{
			ID:    "mnu-settings",
			Label: "Settings",
			Order: 5,
			Children: []Node{
				{ID: "mnu-settings-users", Label: "Users", Route: "/settings/users", Order: 1},
				{ID: "mnu-settings-menus", Label: "Menu Permissions", Route: "/settings/menu-permissions", Order: 2},
			},
		},
	}
}
