package driver

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"deadlock/service/language"
)

var javaTemplate = template.Must(template.New("java").Parse(`import java.io.*;
import java.util.*;
{{- range .Imports}}
{{.}}
{{- end}}

public class Main {
    static List<String> splitArgs(String raw) {
        List<String> parts = new ArrayList<>();
        if (raw.indexOf('|') < 0) {
            if (!raw.isEmpty()) parts.add(raw);
            return parts;
        }
        for (String part : raw.split("\\|", -1)) parts.add(part.trim());
        return parts;
    }

    static long parseInt(String token) {
        String t = token.trim();
        try {
            return Long.parseLong(t);
        } catch (NumberFormatException e) {
            throw new IllegalArgumentException("invalid integer: " + t);
        }
    }

    static String parseString(String token) {
        String t = token.trim();
        if (t.length() >= 2 && (t.charAt(0) == '"' || t.charAt(0) == '\'')
                && t.charAt(t.length() - 1) == t.charAt(0)) {
            return t.substring(1, t.length() - 1);
        }
        return t;
    }

    static int[] parseIntArray(String token) {
        String t = token.trim();
        if (t.startsWith("[")) t = t.substring(1);
        if (t.endsWith("]")) t = t.substring(0, t.length() - 1);
        if (t.trim().isEmpty()) return new int[0];
        String[] items = t.split(",");
        int[] out = new int[items.length];
        for (int i = 0; i < items.length; i++) out[i] = (int) parseInt(items[i]);
        return out;
    }

    static char parseChar(String token) {
        String t = token.trim();
        if (t.length() < 2) throw new IllegalArgumentException("invalid char: " + t);
        return t.charAt(1);
    }

    static String format(Object value) {
        if (value == null) return "null";
        if (value instanceof String || value instanceof Character) return "\"" + value + "\"";
        if (value instanceof int[]) {
            StringJoiner j = new StringJoiner(",", "[", "]");
            for (int v : (int[]) value) j.add(String.valueOf(v));
            return j.toString();
        }
        if (value instanceof long[]) {
            StringJoiner j = new StringJoiner(",", "[", "]");
            for (long v : (long[]) value) j.add(String.valueOf(v));
            return j.toString();
        }
        if (value instanceof boolean[]) {
            StringJoiner j = new StringJoiner(",", "[", "]");
            for (boolean v : (boolean[]) value) j.add(String.valueOf(v));
            return j.toString();
        }
        if (value instanceof char[]) {
            StringJoiner j = new StringJoiner(",", "[", "]");
            for (char v : (char[]) value) j.add(format(v));
            return j.toString();
        }
        if (value instanceof Object[]) {
            StringJoiner j = new StringJoiner(",", "[", "]");
            for (Object v : (Object[]) value) j.add(format(v));
            return j.toString();
        }
        if (value instanceof Collection) {
            StringJoiner j = new StringJoiner(",", "[", "]");
            for (Object v : (Collection<?>) value) j.add(format(v));
            return j.toString();
        }
        return String.valueOf(value);
    }

    static void print(boolean v) { System.out.println(v ? "true" : "false"); }

    static void print(char v) { System.out.println(v); }

    static void print(int v) { System.out.println(v); }

    static void print(long v) { System.out.println(v); }

    static void print(String v) { System.out.println(v); }

    static void print(Object v) { System.out.println(format(v)); }

    public static void main(String[] argv) {
        try {
            BufferedReader reader = new BufferedReader(new InputStreamReader(System.in));
            String raw = reader.readLine();
            List<String> args = splitArgs(raw == null ? "" : raw.trim());
            if (args.size() != {{.Arity}}) {
                throw new IllegalArgumentException("expected {{.Arity}} arguments, got " + args.size());
            }
{{- range .Bindings}}
            {{.Type}} {{.Var}} = {{.Parser}}(args.get({{.Index}}));
{{- end}}
            print(new {{.ClassName}}().{{.FunctionName}}({{.Args}}));
        } catch (Throwable e) {
            String message = e.getMessage();
            System.err.println(message != null ? message : e.toString());
            System.exit(1);
        }
    }
}

{{.Code}}
`))

var javaParsers = map[Kind]string{
	KindInt:      "parseInt",
	KindString:   "parseString",
	KindIntArray: "parseIntArray",
	KindChar:     "parseChar",
}

var (
	javaImportPattern  = regexp.MustCompile(`(?m)^[ \t]*import[ \t]+(static[ \t]+)?[\w.]+(\.\*)?[ \t]*;[ \t]*\r?$`)
	javaPackagePattern = regexp.MustCompile(`(?m)^[ \t]*package[ \t]+[\w.]+[ \t]*;[ \t]*\r?$`)
)

// hoistImports moves import declarations out of the user code so they can precede Main.
func hoistImports(code string) (string, []string) {
	code = javaPackagePattern.ReplaceAllString(code, "")
	var imports []string
	for _, m := range javaImportPattern.FindAllString(code, -1) {
		imports = append(imports, strings.TrimSpace(m))
	}
	return javaImportPattern.ReplaceAllString(code, ""), imports
}

type javaGenerator struct{}

func (javaGenerator) Language() language.Language { return language.Java }

// Generate puts Main first, since the single-file source launcher runs the first
// top-level class of the file.
func (javaGenerator) Generate(h *Harness) (string, error) {
	bindings := make([]binding, len(h.Params))
	for i, p := range h.Params {
		parser, ok := javaParsers[p.Kind]
		if !ok {
			return "", unsupported(p)
		}
		bindings[i] = binding{Index: i, Type: p.Type, Var: fmt.Sprintf("arg%d", i), Parser: parser}
		if p.Kind == KindInt && p.Type != "long" {
			bindings[i].Parser = fmt.Sprintf("(%s) %s", p.Type, parser)
		}
	}
	code, imports := hoistImports(h.Code)
	hc := *h
	hc.Code = strings.TrimSpace(code)
	return render(javaTemplate, struct {
		*Harness
		Imports  []string
		Arity    int
		Bindings []binding
		Args     string
	}{&hc, imports, len(bindings), bindings, argNames(bindings)})
}

func init() {
	register(javaGenerator{})
}
