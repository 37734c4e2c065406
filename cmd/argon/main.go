// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/argon-vm/go-argon/internal/tinyvm"
	"github.com/argon-vm/go-argon/pkg/circuit"
	"github.com/argon-vm/go-argon/pkg/isa"
	"github.com/argon-vm/go-argon/pkg/tables"
	"github.com/argon-vm/go-argon/pkg/util/field"
)

// sampleProgram exercises every supported instruction: io, arithmetic,
// memory, a subroutine, hashing and u32 delegation.
var sampleProgram = []tinyvm.Op{
	{Instr: isa.ReadIo},
	{Instr: isa.ReadIo},
	{Instr: isa.Call, Arg: 13},
	{Instr: isa.Push, Arg: 7},
	{Instr: isa.WriteMem},
	{Instr: isa.Pop},
	{Instr: isa.Hash},
	{Instr: isa.WriteIo},
	{Instr: isa.Halt},
	{Instr: isa.Nop},
	{Instr: isa.Nop},
	// subroutine: combines st0 and st1 into st0
	{Instr: isa.Add},
	{Instr: isa.Push, Arg: 21},
	{Instr: isa.Xor},
	{Instr: isa.Return},
}

var rootCmd = &cobra.Command{
	Use:   "argon",
	Short: "Trace arithmetization playground for the argon virtual machine",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			log.SetLevel(log.DebugLevel)
		}
		//
		log.SetFormatter(&log.TextFormatter{
			ForceColors: term.IsTerminal(int(os.Stdout.Fd())),
		})
	},
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Run the sample program, arithmetize its trace and check every constraint",
	Run: func(cmd *cobra.Command, args []string) {
		rawInput, _ := cmd.Flags().GetString("input")
		seed, _ := cmd.Flags().GetInt64("seed")
		maxCycles, _ := cmd.Flags().GetUint("max-cycles")
		//
		input, err := parseInput(rawInput)
		if err != nil {
			log.Fatal(err)
		}
		//
		aet, err := tinyvm.Run(assembleSample(), input, maxCycles)
		if err != nil {
			log.Fatal(err)
		}
		//
		log.Infof("executed %d cycles, output %v", aet.Height(), aet.Output)
		//
		master := tables.Fill(aet)
		master.Pad()
		log.Infof("padded height %d", master.PaddedHeight())
		//
		ch := tables.SampleChallenges(rand.New(rand.NewSource(seed)))
		extended := master.Extend(ch)
		//
		if errs := extended.Check(ch, aet.Input, aet.Output); len(errs) > 0 {
			for _, err := range errs {
				log.Error(err)
			}
			//
			log.Fatalf("%d violations", len(errs))
		}
		//
		log.Info("all constraints and cross-table arguments satisfied")
	},
}

var constraintsCmd = &cobra.Command{
	Use:   "constraints",
	Short: "Summarize every table's constraint families and degrees",
	Run: func(cmd *cobra.Command, args []string) {
		aet, err := tinyvm.Run(assembleSample(), []field.Element{field.New(3), field.New(5)}, 0)
		if err != nil {
			log.Fatal(err)
		}
		//
		master := tables.Fill(aet)
		//
		for _, tt := range master.All() {
			b := circuit.NewBuilder(tt.FullWidth())
			//
			for _, family := range []tables.Family{
				tables.Initial, tables.Consistency, tables.Transition, tables.Terminal,
			} {
				cs := tables.FamilyConstraints(tt, family, b)
				fmt.Printf("%-12s %-12s %3d constraints, max degree %d\n",
					tt.Name(), family, len(cs), circuit.MaxDegree(cs))
			}
		}
	},
}

// assembleSample assembles the built-in sample program.
func assembleSample() []field.Element {
	return tinyvm.Assemble(sampleProgram)
}

// parseInput turns a comma-separated list of integers into input symbols.
func parseInput(raw string) ([]field.Element, error) {
	var input []field.Element
	//
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		//
		val, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid input symbol %q", part)
		}
		//
		input = append(input, field.New(val))
	}
	//
	return input, nil
}

func main() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	traceCmd.Flags().String("input", "3,5", "comma-separated standard input symbols")
	traceCmd.Flags().Int64("seed", 0, "seed for the sampled challenges")
	traceCmd.Flags().Uint("max-cycles", 0, "cycle budget (0 for the default)")
	rootCmd.AddCommand(traceCmd, constraintsCmd)
	//
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
