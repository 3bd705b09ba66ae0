package panel

import "testing"

func TestCompute_TypingActiveSplitsRemainder70_30(t *testing.T) {
	l := Compute(40, true, 3, ContentSizes{})
	wantPrompt := 5 // promptLines(3)+2, well under terminalHeight/2=20
	if l.Prompt.Min != wantPrompt {
		t.Errorf("Prompt.Min = %d, want %d", l.Prompt.Min, wantPrompt)
	}
	remainder := 40 - wantPrompt
	if l.Output.Min+l.Module.Min != remainder {
		t.Errorf("Output.Min+Module.Min = %d, want %d", l.Output.Min+l.Module.Min, remainder)
	}
	if l.Output.Min < l.Module.Min {
		t.Errorf("Output.Min (%d) should be larger share than Module.Min (%d)", l.Output.Min, l.Module.Min)
	}
}

func TestCompute_TypingActiveCapsPromptAtHalfHeight(t *testing.T) {
	l := Compute(10, true, 20, ContentSizes{})
	if l.Prompt.Min != 5 {
		t.Errorf("Prompt.Min = %d, want 5 (terminalHeight/2 cap)", l.Prompt.Min)
	}
	if l.Prompt.Max == nil || *l.Prompt.Max != 5 {
		t.Errorf("Prompt.Max = %v, want 5", l.Prompt.Max)
	}
}

func TestCompute_IdleFitsContentExactly(t *testing.T) {
	l := Compute(30, false, 0, ContentSizes{Output: 10, Module: 15})
	if l.Output.Min != 10 || l.Module.Min != 15 || l.Prompt.Min != 3 {
		t.Errorf("Compute() = %+v, want {Output:10 Module:15 Prompt:3}", l)
	}
}

func TestCompute_IdleOverflowsToWeightedDistribution(t *testing.T) {
	l := Compute(20, false, 0, ContentSizes{Output: 50, Module: 50})
	if l.Output.Min != 10 {
		t.Errorf("Output.Min = %d, want 10 (50%% of 20)", l.Output.Min)
	}
	if l.Module.Min != 6 {
		t.Errorf("Module.Min = %d, want 6 (30%% of 20)", l.Module.Min)
	}
	if l.Prompt.Min != 4 {
		t.Errorf("Prompt.Min = %d, want 4 (leftover)", l.Prompt.Min)
	}
	if l.Output.Min+l.Module.Min+l.Prompt.Min != 20 {
		t.Errorf("total = %d, want 20", l.Output.Min+l.Module.Min+l.Prompt.Min)
	}
}

func TestCompute_BelowFloorSumCompressesOutputThenModuleThenPrompt(t *testing.T) {
	// outputFloor(1) + moduleFloor(1) + promptFloor(3) == 5; a terminal of
	// height 4 can't satisfy every floor, so spec.md §8 says output
	// compresses first, then module, then prompt.
	l := Compute(4, false, 0, ContentSizes{})
	if l.Output.Min != outputFloor {
		t.Errorf("Output.Min = %d, want its floor %d (satisfied first)", l.Output.Min, outputFloor)
	}
	if l.Module.Min != moduleFloor {
		t.Errorf("Module.Min = %d, want its floor %d (satisfied second)", l.Module.Min, moduleFloor)
	}
	if l.Prompt.Min != 2 {
		t.Errorf("Prompt.Min = %d, want 2 (below its floor %d, absorbs the shortfall)", l.Prompt.Min, promptFloor)
	}
	if l.Output.Min+l.Module.Min+l.Prompt.Min != 4 {
		t.Errorf("total = %d, want 4", l.Output.Min+l.Module.Min+l.Prompt.Min)
	}
}

func TestCompute_SeverelyConstrainedTerminalZeroesLaterPanelsInOrder(t *testing.T) {
	// Only enough room for output's floor; module and prompt are both
	// compressed to zero, output → module → prompt.
	l := Compute(1, false, 0, ContentSizes{})
	if l.Output.Min != 1 {
		t.Errorf("Output.Min = %d, want 1", l.Output.Min)
	}
	if l.Module.Min != 0 {
		t.Errorf("Module.Min = %d, want 0", l.Module.Min)
	}
	if l.Prompt.Min != 0 {
		t.Errorf("Prompt.Min = %d, want 0", l.Prompt.Min)
	}
}
