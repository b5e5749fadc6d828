package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"focusboard/backend/internal/dashboard"
	"focusboard/backend/internal/db"
	"focusboard/backend/internal/model"
	"focusboard/backend/internal/persistence"
	"focusboard/backend/internal/repository"
)

var inspectDB string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Report what recovery would do with every persisted timer",
	Long:  `inspect reads the persisted timer slots without changing them and prints the recovery outcome of each.`,
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectDB, "db", envOr("DB_PATH", "./data/focusboard.db"), "path to the sqlite database")
}

// repoLookup resolves tasks of one user straight from the database.
type repoLookup struct {
	userID string
	tasks  *repository.TaskRepository
}

func (l repoLookup) FindTask(ctx context.Context, taskID string) (*model.Task, error) {
	task, err := l.tasks.GetByID(ctx, l.userID, taskID)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	return task, err
}

func runInspect(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(inspectDB); err != nil {
		return fmt.Errorf("database %s: %w", inspectDB, err)
	}
	database, err := db.OpenSQLite(inspectDB)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := cmd.Context()
	kv := repository.NewKVRepository(database)
	tasks := repository.NewTaskRepository(database)
	manager := persistence.NewManager(kv, nil, nil)

	keys, err := kv.Keys(ctx, persistence.KeyPrefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Println("no persisted timers")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tOUTCOME\tPHASE\tREMAINING\tAGE\tTASK")
	for _, key := range keys {
		userID, ok := persistence.UserFromKey(key)
		if !ok {
			continue
		}
		raw, found, err := kv.Get(ctx, key)
		if err != nil {
			return err
		}
		if !found {
			continue
		}

		st, outcome, err := manager.Inspect(ctx, raw, repoLookup{userID: userID, tasks: tasks})
		if err != nil && outcome != persistence.OutcomeCorrupt {
			return err
		}
		if outcome != persistence.OutcomeRestored {
			fmt.Fprintf(w, "%s\t%s\t-\t-\t-\t-\n", userID, outcome)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			userID,
			outcome,
			st.Phase(),
			dashboard.FormatRemaining(st.Remaining(now)),
			persistence.Age(st, now).Truncate(time.Second),
			st.TaskID,
		)
	}
	return w.Flush()
}
