package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flame-hpc/flame2/pkg/flame2"
	"github.com/flame-hpc/flame2/pkg/task"
)

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a small built-in simulation",
	}
	cmd.AddCommand(newDemoCirclesCmd())
	return cmd
}

func newDemoCirclesCmd() *cobra.Command {
	var population int
	var iterations int

	cmd := &cobra.Command{
		Use:   "circles",
		Short: "Run a four-task sequential-dependency arithmetic chain over a population of Circle agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCirclesDemo(population, iterations)
		},
	}

	cmd.Flags().IntVar(&population, "population", 1000, "number of Circle agents")
	cmd.Flags().IntVar(&iterations, "iterations", 1, "number of iterations to run")
	return cmd
}

func runCirclesDemo(population, iterations int) error {
	rt := flame2.NewRuntime()

	if err := rt.RegisterAgent("Circle"); err != nil {
		return err
	}
	if err := flame2.RegisterAgentVar[int](rt, "Circle", "x"); err != nil {
		return err
	}
	if err := flame2.RegisterAgentVar[float64](rt, "Circle", "y"); err != nil {
		return err
	}
	if err := flame2.RegisterAgentVar[float64](rt, "Circle", "z"); err != nil {
		return err
	}
	if err := rt.HintPopulationSize("Circle", population); err != nil {
		return err
	}

	xs, err := flame2.GetVector[int](rt, "Circle", "x")
	if err != nil {
		return err
	}
	ys, err := flame2.GetVector[float64](rt, "Circle", "y")
	if err != nil {
		return err
	}
	zs, err := flame2.GetVector[float64](rt, "Circle", "z")
	if err != nil {
		return err
	}
	for i := 0; i < population; i++ {
		xs.Append(i)
		ys.Append(0)
		zs.Append(0)
	}

	t1, err := rt.CreateAgentTask("t1", task.Kind("compute"), "Circle", func(ctx *task.Context) (task.Status, error) {
		x, err := task.GetMem[int](ctx, "x")
		if err != nil {
			return task.Alive, err
		}
		return task.Alive, task.SetMem[float64](ctx, "y", float64(10*x))
	})
	if err != nil {
		return err
	}
	if err := t1.AllowAccess("x", false); err != nil {
		return err
	}
	if err := t1.AllowAccess("y", true); err != nil {
		return err
	}

	t2, err := rt.CreateAgentTask("t2", task.Kind("compute"), "Circle", func(ctx *task.Context) (task.Status, error) {
		x, err := task.GetMem[int](ctx, "x")
		if err != nil {
			return task.Alive, err
		}
		return task.Alive, task.SetMem[float64](ctx, "z", float64(x+1))
	})
	if err != nil {
		return err
	}
	if err := t2.AllowAccess("x", false); err != nil {
		return err
	}
	if err := t2.AllowAccess("z", true); err != nil {
		return err
	}

	t3, err := rt.CreateAgentTask("t3", task.Kind("compute"), "Circle", func(ctx *task.Context) (task.Status, error) {
		x, err := task.GetMem[int](ctx, "x")
		if err != nil {
			return task.Alive, err
		}
		y, err := task.GetMem[float64](ctx, "y")
		if err != nil {
			return task.Alive, err
		}
		return task.Alive, task.SetMem[float64](ctx, "y", y+float64(x))
	})
	if err != nil {
		return err
	}
	if err := t3.AllowAccess("x", false); err != nil {
		return err
	}
	if err := t3.AllowAccess("y", true); err != nil {
		return err
	}

	t4, err := rt.CreateAgentTask("t4", task.Kind("compute"), "Circle", func(ctx *task.Context) (task.Status, error) {
		y, err := task.GetMem[float64](ctx, "y")
		if err != nil {
			return task.Alive, err
		}
		z, err := task.GetMem[float64](ctx, "z")
		if err != nil {
			return task.Alive, err
		}
		return task.Alive, task.SetMem[int](ctx, "x", int(y+z))
	})
	if err != nil {
		return err
	}
	if err := t4.AllowAccess("y", false); err != nil {
		return err
	}
	if err := t4.AllowAccess("z", false); err != nil {
		return err
	}
	if err := t4.AllowAccess("x", true); err != nil {
		return err
	}

	if err := rt.AddDependency("t3", "t1"); err != nil {
		return err
	}
	if err := rt.AddDependency("t4", "t1"); err != nil {
		return err
	}
	if err := rt.AddDependency("t4", "t2"); err != nil {
		return err
	}
	if err := rt.AddDependency("t4", "t3"); err != nil {
		return err
	}

	if err := rt.CreateQueue(0, 8); err != nil {
		return err
	}
	rt.AssignType(0, task.Kind("compute"))

	ctx := context.Background()
	rt.Start(ctx)
	defer rt.Stop()

	for i := 0; i < iterations; i++ {
		if err := rt.RunIteration(ctx); err != nil {
			return fmt.Errorf("demo circles: iteration %d: %w", i, err)
		}
	}

	sample := population
	if sample > 5 {
		sample = 5
	}
	fmt.Printf("ran %d iterations over %d agents, first %d values of x:\n", iterations, population, sample)
	for i := 0; i < sample; i++ {
		fmt.Printf("  x[%d] = %d\n", i, xs.At(i))
	}
	return nil
}
