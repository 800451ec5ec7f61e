package vm

import (
	"ua/internal/array"
	"ua/internal/bytecode"
	uerrors "ua/internal/errors"
)

// callIoOp dispatches a CallIoOp instruction to the backend. Per the
// spec's tie-break rule, an IO op first pops its argument items
// topmost-first, then pushes its results; ops with no fixed output
// count (import) may push a variable number.
func (v *VM) callIoOp(instr bytecode.Instr) error {
	span := instr.Span
	b := v.Backend
	switch instr.IoOp {
	case "show":
		a, err := v.pop1(span)
		if err != nil {
			return err
		}
		return ioErr(b.Show(a), span)
	case "print":
		a, err := v.pop1(span)
		if err != nil {
			return err
		}
		return ioErr(b.Print(a), span)
	case "println":
		a, err := v.pop1(span)
		if err != nil {
			return err
		}
		return ioErr(b.Println(a), span)
	case "scanln":
		s, err := b.ScanLine()
		if err != nil {
			return ioErr(err, span)
		}
		v.push(array.FromString(s))
		return nil
	case "args":
		v.push(stringsToArray(b.Args()))
		return nil
	case "var":
		a, err := v.pop1(span)
		if err != nil {
			return err
		}
		name, err := a.AsPath()
		if err != nil {
			return wrapRuntimeErr(err, span)
		}
		val, err := b.Var(name)
		if err != nil {
			return ioErr(err, span)
		}
		v.push(array.FromString(val))
		return nil
	case "rand":
		f, err := b.Rand()
		if err != nil {
			return ioErr(err, span)
		}
		v.push(array.ScalarNum(f))
		return nil
	case "now":
		f, err := b.Now()
		if err != nil {
			return ioErr(err, span)
		}
		v.push(array.ScalarNum(f))
		return nil
	case "freadstr":
		return v.ioReadPath(span, b.FReadStr, func(s string) array.Value { return array.FromString(s) })
	case "freadbytes":
		return v.ioReadPathBytes(span)
	case "flines":
		return v.ioReadPathLines(span)
	case "fwritestr":
		return v.ioWriteStr(span)
	case "fwritebytes":
		return v.ioWriteBytes(span)
	case "fexists":
		return v.ioReadPathBool(span, b.FExists)
	case "fisfile":
		return v.ioReadPathBool(span, b.FIsFile)
	case "flistdir":
		return v.ioReadPathStrings(span, b.FListDir)
	case "import":
		return v.ioImport(span)
	case "imread":
		return v.ioImRead(span)
	case "imwrite":
		return v.ioImWrite(span)
	case "imshow":
		a, err := v.pop1(span)
		if err != nil {
			return err
		}
		return ioErr(b.ImShow(a), span)
	case "format":
		return v.ioFormat(instr)
	default:
		return uerrors.New(uerrors.IO, toErrSpan(span), "unknown io op %q", instr.IoOp)
	}
}

func ioErr(err error, span bytecode.Span) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*uerrors.Error); ok {
		return err
	}
	return uerrors.NewIOError(toErrSpan(span), err, "io operation")
}

func stringsToArray(rows []string) array.Value {
	vals := array.FromStringRows(rows)
	if len(vals) == 0 {
		return array.FromNums([]int{0}, nil)
	}
	out, err := stackAsRows(vals)
	if err != nil {
		return vals[0]
	}
	return out
}

func (v *VM) pathArg(span bytecode.Span) (string, error) {
	a, err := v.pop1(span)
	if err != nil {
		return "", err
	}
	p, err := a.AsPath()
	if err != nil {
		return "", wrapRuntimeErr(err, span)
	}
	return p, nil
}

func (v *VM) ioReadPath(span bytecode.Span, read func(string) (string, error), wrap func(string) array.Value) error {
	path, err := v.pathArg(span)
	if err != nil {
		return err
	}
	s, err := read(path)
	if err != nil {
		return ioErr(err, span)
	}
	v.push(wrap(s))
	return nil
}

func (v *VM) ioReadPathBytes(span bytecode.Span) error {
	path, err := v.pathArg(span)
	if err != nil {
		return err
	}
	data, err := v.Backend.FReadBytes(path)
	if err != nil {
		return ioErr(err, span)
	}
	val, err := array.NewBytes([]int{len(data)}, data)
	if err != nil {
		return wrapRuntimeErr(err, span)
	}
	v.push(val)
	return nil
}

func (v *VM) ioReadPathLines(span bytecode.Span) error {
	path, err := v.pathArg(span)
	if err != nil {
		return err
	}
	lines, err := v.Backend.FLines(path)
	if err != nil {
		return ioErr(err, span)
	}
	v.push(stringsToArray(lines))
	return nil
}

func (v *VM) ioReadPathBool(span bytecode.Span, check func(string) (bool, error)) error {
	path, err := v.pathArg(span)
	if err != nil {
		return err
	}
	ok, err := check(path)
	if err != nil {
		return ioErr(err, span)
	}
	v.push(array.Bool(ok))
	return nil
}

func (v *VM) ioReadPathStrings(span bytecode.Span, list func(string) ([]string, error)) error {
	path, err := v.pathArg(span)
	if err != nil {
		return err
	}
	names, err := list(path)
	if err != nil {
		return ioErr(err, span)
	}
	v.push(stringsToArray(names))
	return nil
}

func (v *VM) ioWriteStr(span bytecode.Span) error {
	args, err := v.popN(2, span)
	if err != nil {
		return err
	}
	path, contents := args[0], args[1]
	p, err := path.AsPath()
	if err != nil {
		return wrapRuntimeErr(err, span)
	}
	return ioErr(v.Backend.FWriteStr(p, contents.String()), span)
}

func (v *VM) ioWriteBytes(span bytecode.Span) error {
	args, err := v.popN(2, span)
	if err != nil {
		return err
	}
	path, contents := args[0], args[1]
	p, err := path.AsPath()
	if err != nil {
		return wrapRuntimeErr(err, span)
	}
	data, err := contents.Bytes()
	if err != nil {
		return wrapRuntimeErr(err, span)
	}
	return ioErr(v.Backend.FWriteBytes(p, data), span)
}

func (v *VM) ioImRead(span bytecode.Span) error {
	path, err := v.pathArg(span)
	if err != nil {
		return err
	}
	img, err := v.Backend.ImRead(path)
	if err != nil {
		return ioErr(err, span)
	}
	v.push(img)
	return nil
}

func (v *VM) ioImWrite(span bytecode.Span) error {
	args, err := v.popN(2, span)
	if err != nil {
		return err
	}
	path, img := args[0], args[1]
	p, err := path.AsPath()
	if err != nil {
		return wrapRuntimeErr(err, span)
	}
	return ioErr(v.Backend.ImWrite(p, img), span)
}

func (v *VM) ioFormat(instr bytecode.Instr) error {
	n := instr.Const
	args, err := v.popInOrder(n, instr.Span)
	if err != nil {
		return err
	}
	var b []rune
	for i, part := range instr.Parts {
		b = append(b, []rune(part)...)
		if i < len(args) {
			b = append(b, []rune(args[i].String())...)
		}
	}
	v.push(array.FromString(string(b)))
	return nil
}

func (v *VM) ioImport(span bytecode.Span) error {
	path, err := v.pathArg(span)
	if err != nil {
		return err
	}
	// Import compilation/execution is wired by the driver, which knows
	// how to read, parse, and compile a file path; the VM only owns
	// caching and replays the cached stack.
	if v.RunImport == nil {
		return uerrors.New(uerrors.Import, toErrSpan(span), "import not supported in this context")
	}
	res, err := v.Importer.Resolve(path, v.RunImport)
	if err != nil {
		return err
	}
	for _, item := range res.Stack {
		v.push(item.(array.Value))
	}
	return nil
}
