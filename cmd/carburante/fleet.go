package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flottaio/carburante/internal/cli"
	"github.com/flottaio/carburante/internal/model"
)

func fleetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fleet",
		Short: "Manage the fleet reference data used for matching",
	}

	cmd.AddCommand(fleetVehiclesCmd())
	cmd.AddCommand(fleetCardsCmd())
	cmd.AddCommand(fleetEmployeesCmd())

	return cmd
}

func fleetEmployeesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "Manage drivers and card holders",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List active employees",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			employees, err := store.ListEmployees(ctx)
			if err != nil {
				return err
			}

			if len(employees) == 0 {
				fmt.Println(cli.SubtleStyle.Render("no employees yet — add one with: carburante fleet employees add"))
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-5s %-20s %s", "id", "last name", "first name")))
			for _, employee := range employees {
				fmt.Printf("%-5d %-20s %s\n", employee.ID, employee.LastName, employee.FirstName)
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add [last-name]",
		Short: "Register an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			firstName, _ := cmd.Flags().GetString("first-name")

			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			employee := &model.Employee{
				FirstName: firstName,
				LastName:  args[0],
				IsActive:  true,
			}
			if err := store.CreateEmployee(ctx, employee); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ employee %d registered", employee.ID)))
			return nil
		},
	}
	add.Flags().String("first-name", "", "Employee first name")

	cmd.AddCommand(list)
	cmd.AddCommand(add)

	return cmd
}

func fleetVehiclesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "Manage vehicles",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List active vehicles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			vehicles, err := store.ListVehicles(ctx)
			if err != nil {
				return err
			}

			if len(vehicles) == 0 {
				fmt.Println(cli.SubtleStyle.Render("no vehicles yet — add one with: carburante fleet vehicles add"))
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-5s %-10s %-12s %-12s %s", "id", "plate", "fuel", "make", "model")))
			for _, vehicle := range vehicles {
				fmt.Printf("%-5d %-10s %-12s %-12s %s\n",
					vehicle.ID, vehicle.Plate, vehicle.FuelType, vehicle.Make, vehicle.Model)
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add [plate]",
		Short: "Register a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fuelType, _ := cmd.Flags().GetString("fuel-type")
			make, _ := cmd.Flags().GetString("make")
			modelName, _ := cmd.Flags().GetString("model")

			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			vehicle := &model.Vehicle{
				Plate:    args[0],
				FuelType: fuelType,
				Make:     make,
				Model:    modelName,
				IsActive: true,
			}
			if err := store.CreateVehicle(ctx, vehicle); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ vehicle %d registered with plate %s",
				vehicle.ID, vehicle.Plate)))
			return nil
		},
	}
	add.Flags().String("fuel-type", "", "Fuel type (e.g. GASOLIO, BENZINA)")
	add.Flags().String("make", "", "Vehicle make")
	add.Flags().String("model", "", "Vehicle model")

	cmd.AddCommand(list)
	cmd.AddCommand(add)

	return cmd
}

func fleetCardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Manage fuel cards",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List active fuel cards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cards, err := store.ListFuelCards(ctx)
			if err != nil {
				return err
			}

			if len(cards) == 0 {
				fmt.Println(cli.SubtleStyle.Render("no fuel cards yet — add one with: carburante fleet cards add"))
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-5s %-20s %-12s %s", "id", "card number", "supplier", "vehicle")))
			for _, card := range cards {
				vehicle := "-"
				if card.VehicleID != nil {
					vehicle = fmt.Sprintf("%d", *card.VehicleID)
				}
				fmt.Printf("%-5d %-20s %-12s %s\n", card.ID, card.CardNumber, card.Supplier, vehicle)
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add [card-number]",
		Short: "Register a fuel card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			supplier, _ := cmd.Flags().GetString("supplier")
			plate, _ := cmd.Flags().GetString("plate")

			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			card := &model.FuelCard{
				CardNumber: args[0],
				Supplier:   supplier,
				IsActive:   true,
			}
			if plate != "" {
				vehicle, err := store.GetVehicleByPlate(ctx, plate)
				if err != nil {
					return err
				}
				card.VehicleID = &vehicle.ID
			}

			if err := store.CreateFuelCard(ctx, card); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ fuel card %d registered", card.ID)))
			return nil
		},
	}
	add.Flags().String("supplier", "", "Issuing supplier name")
	add.Flags().String("plate", "", "Plate of the vehicle this card is bound to")

	cmd.AddCommand(list)
	cmd.AddCommand(add)

	return cmd
}
