package armsim

// passes reports whether the CPU's current flags satisfy the 4-bit ARM
// condition field.
func passes(cond uint32, f CPSR) bool {
	switch cond {
	case 0: // EQ
		return f.Z
	case 1: // NE
		return !f.Z
	case 2: // CS/HS
		return f.C
	case 3: // CC/LO
		return !f.C
	case 4: // MI
		return f.N
	case 5: // PL
		return !f.N
	case 6: // VS
		return f.V
	case 7: // VC
		return !f.V
	case 8: // HI
		return f.C && !f.Z
	case 9: // LS
		return !f.C || f.Z
	case 10: // GE
		return f.N == f.V
	case 11: // LT
		return f.N != f.V
	case 12: // GT
		return !f.Z && f.N == f.V
	case 13: // LE
		return f.Z || f.N != f.V
	case 14: // AL
		return true
	default:
		return false
	}
}
