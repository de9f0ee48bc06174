package visibility

import "testing"

type rec struct {
	id    string
	owner string
	team  string
}

func ownerOf(r rec) string { return r.owner }
func teamOf(r rec) string  { return r.team }

var dataset = []rec{
	{id: "l1", owner: "u1", team: "T1"},
	{id: "l2", owner: "u2", team: "T1"},
	{id: "l3", owner: "u3", team: "T2"},
	{id: "l4", owner: "u4", team: ""},
}

func ids(rs []rec) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.id)
	}
	return out
}

func assertIDs(t *testing.T, got []rec, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("expected %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, g)
		}
	}
}

func TestVisible_AdminSeesEverything(t *testing.T) {
	admin := Actor{ID: "boss", Role: RoleAdmin}
	assertIDs(t, Visible(admin, dataset, ownerOf, teamOf), "l1", "l2", "l3", "l4")
}

func TestVisible_SalesSeesOnlyOwn(t *testing.T) {
	sales := Actor{ID: "u2", Role: RoleSales, TeamID: "T1"}
	assertIDs(t, Visible(sales, dataset, ownerOf, teamOf), "l2")
}

func TestVisible_SalesWithNothingOwned(t *testing.T) {
	sales := Actor{ID: "u9", Role: RoleSales}
	assertIDs(t, Visible(sales, dataset, ownerOf, teamOf))
}

func TestVisible_ManagerTeamIsolation(t *testing.T) {
	mgr := Actor{ID: "m1", Role: RoleManager, TeamID: "T1"}
	got := Visible(mgr, dataset, ownerOf, teamOf)
	assertIDs(t, got, "l1", "l2")

	for _, r := range got {
		if r.team == "T2" {
			t.Fatalf("record from another team leaked: %s", r.id)
		}
	}
}

func TestVisible_ManagerWithoutTeamFailsClosed(t *testing.T) {
	mgr := Actor{ID: "m2", Role: RoleManager}
	assertIDs(t, Visible(mgr, dataset, ownerOf, teamOf))
}

func TestVisible_RecordWithoutTeamInvisibleToManager(t *testing.T) {
	mgr := Actor{ID: "m1", Role: RoleManager, TeamID: "T1"}
	got := Visible(mgr, []rec{{id: "x", owner: "u4", team: ""}}, ownerOf, teamOf)
	assertIDs(t, got)
}

// Visible y ScopeFor+Allows deben devolver el mismo conjunto:
// es el contrato que permite filtrar en SQL o en memoria indistintamente.
func TestVisible_MatchesScopeAllows(t *testing.T) {
	actors := []Actor{
		{ID: "boss", Role: RoleAdmin},
		{ID: "m1", Role: RoleManager, TeamID: "T1"},
		{ID: "m2", Role: RoleManager},
		{ID: "u3", Role: RoleSales},
		{ID: "nobody", Role: Role("VIEWER")},
	}

	for _, a := range actors {
		scope := ScopeFor(a)
		viaScope := make([]rec, 0)
		for _, r := range dataset {
			if Allows(scope, r.owner, r.team) {
				viaScope = append(viaScope, r)
			}
		}
		assertIDs(t, Visible(a, dataset, ownerOf, teamOf), ids(viaScope)...)
	}
}

func TestCanMutate(t *testing.T) {
	cases := []struct {
		name      string
		actor     Actor
		ownerID   string
		ownerTeam string
		want      bool
	}{
		{"admin always", Actor{ID: "a", Role: RoleAdmin}, "u1", "T9", true},
		{"owner always", Actor{ID: "u1", Role: RoleSales}, "u1", "", true},
		{"sales not owner", Actor{ID: "u1", Role: RoleSales}, "u2", "T1", false},
		{"manager same team", Actor{ID: "m", Role: RoleManager, TeamID: "T1"}, "u2", "T1", true},
		{"manager other team", Actor{ID: "m", Role: RoleManager, TeamID: "T1"}, "u3", "T2", false},
		{"manager no team", Actor{ID: "m", Role: RoleManager}, "u2", "T1", false},
		{"manager target no team", Actor{ID: "m", Role: RoleManager, TeamID: "T1"}, "u4", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanMutate(tc.actor, tc.ownerID, tc.ownerTeam); got != tc.want {
				t.Fatalf("CanMutate = %v, want %v", got, tc.want)
			}
		})
	}
}
