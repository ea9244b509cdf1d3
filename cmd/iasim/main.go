// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/ezrec/iasim/emulator"
)

// promptFilename asks for the program file name on stdin.
func promptFilename() (filename string) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Println("Enter filename: ")
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Split(bufio.ScanWords)
	if scanner.Scan() {
		filename = scanner.Text()
	}

	return
}

func main() {
	var memoryFile string
	var program string
	var compile string
	var save bool
	var output string
	var unchecked bool
	var verbose bool

	config := emulator.DefaultConfig()

	flag.StringVar(&memoryFile, "m", "memoryinit_ex.txt", "Initial memory feed")
	flag.StringVar(&program, "p", "", "Program feed (prompted for if empty)")
	flag.StringVar(&compile, "c", "", "Assembly source to compile, instead of a program feed")
	flag.BoolVar(&save, "s", false, "Save compiled program to output, do not execute")
	flag.StringVar(&output, "o", "result.txt", "Memory dump output")
	flag.IntVar(&config.CacheSize, "cache", config.CacheSize, "Cache lines")
	flag.IntVar(&config.MemorySize, "size", config.MemorySize, "Memory words")
	flag.BoolVar(&unchecked, "unchecked", false, "Disable operand bounds checking")
	flag.BoolVar(&config.PartialMemory, "partial", false, "Zero fill a short memory feed")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if config.CacheSize <= 0 {
		log.Fatalf("%v: -cache must be positive", os.Args[0])
	}
	if config.MemorySize <= 0 {
		log.Fatalf("%v: -size must be positive", os.Args[0])
	}

	config.BoundsCheck = !unchecked
	config.Verbose = verbose

	emu := emulator.NewEmulator(config)
	emu.Cpu.Output = os.Stdout

	source := compile
	if len(compile) != 0 {
		// Compile a new instruction stream.
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		err = emu.Assemble(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	} else {
		if len(program) == 0 {
			program = promptFilename()
		}
		source = program

		inf, err := os.Open(program)
		if err != nil {
			log.Fatalf("%v: %v", program, err)
		}
		defer inf.Close()

		err = emu.LoadProgram(inf)
		if err != nil {
			log.Fatalf("%v: %v", program, err)
		}
	}

	if save {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()

		err = emu.SaveProgram(ouf)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		return
	}

	inf, err := os.Open(memoryFile)
	if err != nil {
		log.Fatalf("%v: %v", memoryFile, err)
	}
	defer inf.Close()

	err = emu.LoadMemory(inf)
	if err != nil {
		log.Fatalf("%v: %v", memoryFile, err)
	}

	emu.Reset()
	err = emu.Run()
	if err != nil {
		log.Fatalf("%v: %v", source, err)
	}

	err = emu.Report(os.Stdout)
	if err != nil {
		log.Fatal(err)
	}

	ouf, err := os.Create(output)
	if err != nil {
		log.Fatalf("%v: %v", output, err)
	}

	defer ouf.Close()

	dump := bufio.NewWriter(ouf)
	err = emu.Dump(dump)
	if err == nil {
		err = dump.Flush()
	}
	if err != nil {
		log.Fatalf("%v: %v", output, err)
	}
}
