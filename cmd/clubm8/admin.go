package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/clubm8/clubm8api/internal/database"
	"github.com/clubm8/clubm8api/internal/fixture"
	"github.com/clubm8/clubm8api/internal/model"
	"github.com/clubm8/clubm8api/internal/schedule"
	"github.com/clubm8/clubm8api/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations and print the schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		v, err := database.Version(db, cfg.Database.Driver)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
		return nil
	},
}

var loaddataCmd = &cobra.Command{
	Use:   "loaddata <fixture>...",
	Short: "Load built-in fixtures or YAML fixture files",
	Long: `Loads fixtures in the order given. A name without a .yaml suffix or path
separator refers to a built-in fixture: ` + fmt.Sprint(fixture.Default) + `.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := fixture.Load(db, args...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "installed %d object(s) from %d fixture(s)\n", n, len(args))
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage API users",
}

var (
	firstName string
	lastName  string
	email     string
	superuser bool
)

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		u, err := store.NewUserStore(db).Create(args[0], firstName, lastName, email, superuser)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", u.Username, u.ID)
		return nil
	},
}

var userGrantCmd = &cobra.Command{
	Use:   "grant <username> <codename>...",
	Short: "Grant permissions such as add_slot or change_news",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		users := store.NewUserStore(db)
		u, err := lookupUser(users, args[0])
		if err != nil {
			return err
		}
		if err := users.Grant(u.ID, args[1:]...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "granted %v to %s\n", args[1:], u.Username)
		return nil
	},
}

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys",
}

var apikeyIssueCmd = &cobra.Command{
	Use:   "issue <username>",
	Short: "Issue a new API key, replacing any existing one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		users := store.NewUserStore(db)
		u, err := lookupUser(users, args[0])
		if err != nil {
			return err
		}
		key, err := users.IssueAPIKey(u.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Authorization: ApiKey %s:%s\n", u.Username, key)
		return nil
	},
}

var slotCmd = &cobra.Command{
	Use:   "slot",
	Short: "Manage slots",
}

var (
	scheduleStart string
	scheduleRule  string
	scheduleUntil string
)

var slotScheduleCmd = &cobra.Command{
	Use:   "schedule <plan-id>",
	Short: "Create recurring slots for a plan",
	Example: `  clubm8 slot schedule 3 --start "2016-11-07 20:00" --rule "FREQ=WEEKLY" --until 2016-12-19
  clubm8 slot schedule 1 --start "2016-11-07 20:00" --rule "FREQ=WEEKLY;INTERVAL=2;COUNT=6"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid plan id %q", args[0])
		}
		cfg, db, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		start, err := parseLocal(scheduleStart, loc)
		if err != nil {
			return err
		}
		var until time.Time
		if scheduleUntil != "" {
			d, err := time.ParseInLocation("2006-01-02", scheduleUntil, loc)
			if err != nil {
				return fmt.Errorf("invalid --until %q", scheduleUntil)
			}
			until = d.AddDate(0, 0, 1).Add(-time.Second)
		}

		plans := store.NewPlanStore(db)
		plan, err := plans.GetByID(planID)
		if err != nil {
			return err
		}
		if plan == nil {
			return fmt.Errorf("plan %d not found", planID)
		}

		starts, err := schedule.Starts(scheduleRule, start, until, schedule.MaxStarts)
		if err != nil {
			return err
		}
		ids, err := store.NewSlotStore(db, loc).CreateMany(planID, starts)
		if err != nil {
			return err
		}
		for i, id := range ids {
			fmt.Fprintf(cmd.OutOrStdout(), "slot %d  %s\n", id, starts[i].In(loc).Format(time.RFC3339))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d slot(s) for plan %d\n", len(ids), planID)
		return nil
	},
}

func parseLocal(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --start %q", s)
}

func init() {
	slotScheduleCmd.Flags().StringVar(&scheduleStart, "start", "", "first slot start, local time (required)")
	slotScheduleCmd.Flags().StringVar(&scheduleRule, "rule", "FREQ=WEEKLY", "RFC 5545 recurrence rule")
	slotScheduleCmd.Flags().StringVar(&scheduleUntil, "until", "", "last day to schedule (YYYY-MM-DD)")
	slotScheduleCmd.MarkFlagRequired("start")
	slotCmd.AddCommand(slotScheduleCmd)

	userCreateCmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	userCreateCmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	userCreateCmd.Flags().StringVar(&email, "email", "", "email address")
	userCreateCmd.Flags().BoolVar(&superuser, "superuser", false, "grant every permission")
	userCmd.AddCommand(userCreateCmd, userGrantCmd)
	apikeyCmd.AddCommand(apikeyIssueCmd)
}

func lookupUser(users *store.UserStore, username string) (*model.User, error) {
	u, err := users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %q not found", username)
	}
	return u, nil
}
